// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type chainMetrics struct {
	block    prometheus.Gauge
	opsTotal *prometheus.CounterVec
}

func (m *chainMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.block = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "gargoyle_chain_block",
		Help: "current block height",
	})
	m.opsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gargoyle_chain_ops_total",
			Help: "ops applied by type and result",
		},
		[]string{"type", "result"},
	)
}
