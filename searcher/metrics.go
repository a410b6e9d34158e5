package searcher

import (
	"time"

	"mcts/atomics"
)

type SearchMetrics struct {
	StartTime  time.Time
	Duration   time.Duration
	Episodes   int64
	Expansions int64
}

type MetricsCollector interface {
	Start()
	AddEpisode()
	AddExpansion()
	Complete() SearchMetrics
}

type metricsCollector struct {
	startTime  time.Time
	episodes   atomics.Int64
	expansions atomics.Int64
}

func NewMetricsCollector() MetricsCollector {
	return &metricsCollector{}
}

func (m *metricsCollector) Start() {
	m.startTime = time.Now()
	m.episodes.Store(0)
	m.expansions.Store(0)
}

func (m *metricsCollector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *metricsCollector) AddExpansion() {
	m.expansions.Add(1)
}

func (m *metricsCollector) Complete() SearchMetrics {
	return SearchMetrics{
		StartTime:  m.startTime,
		Duration:   time.Since(m.startTime),
		Episodes:   m.episodes.Load(),
		Expansions: m.expansions.Load(),
	}
}

type noMetricsCollector struct{}

func NewNoMetricsCollector() MetricsCollector {
	return &noMetricsCollector{}
}

func (m *noMetricsCollector) Start()                  {}
func (m *noMetricsCollector) AddEpisode()             {}
func (m *noMetricsCollector) AddExpansion()           {}
func (m *noMetricsCollector) Complete() SearchMetrics { return SearchMetrics{} }
