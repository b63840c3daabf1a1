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

package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	totalSupply      prometheus.Gauge
	transfersTotal   prometheus.Counter
	delegationsTotal prometheus.Counter
	checkpointsTotal prometheus.Counter
	revertsTotal     prometheus.Counter
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.totalSupply = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "gargoyle_ledger_total_supply",
		Help: "current token supply",
	})
	m.transfersTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "gargoyle_ledger_transfers_total",
		Help: "total token transfers",
	})
	m.delegationsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "gargoyle_ledger_delegations_total",
		Help: "total delegate changes",
	})
	m.checkpointsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "gargoyle_ledger_checkpoints_total",
		Help: "total voting weight checkpoints written",
	})
	m.revertsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "gargoyle_ledger_reverts_total",
		Help: "token calls undone by a reverted proposal execution",
	})
}
