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

package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type governorMetrics struct {
	proposalsTotal  prometheus.Counter
	votesTotal      *prometheus.CounterVec
	executionsTotal *prometheus.CounterVec
	canceledTotal   prometheus.Counter
	executeLatency  prometheus.Histogram
}

func (m *governorMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.proposalsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "gargoyle_governance_proposals_total",
		Help: "total proposals created",
	})
	m.votesTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gargoyle_governance_votes_total",
			Help: "total votes cast by support",
		},
		[]string{"support"},
	)
	m.executionsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gargoyle_governance_executions_total",
			Help: "proposal execution attempts that reached the action batch, by result",
		},
		[]string{"result"},
	)
	m.canceledTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "gargoyle_governance_proposals_canceled_total",
		Help: "total proposals canceled by their proposer",
	})
	m.executeLatency = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gargoyle_governance_execute_seconds",
			Help:    "time spent running proposal action batches",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		},
	)
}
