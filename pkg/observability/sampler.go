package observability

import (
	"database/sql"
	"fmt"

	"github.com/robfig/cron/v3"
)

// DefaultPoolSampleSchedule samples pool statistics every 15 seconds
const DefaultPoolSampleSchedule = "@every 15s"

// StatsSource reports connection pool statistics; *sql.DB satisfies it
type StatsSource interface {
	Stats() sql.DBStats
}

// PoolSampler periodically copies database pool statistics into Prometheus gauges
type PoolSampler struct {
	cron    *cron.Cron
	metrics *Metrics
	source  StatsSource
	logger  *Logger
}

// NewPoolSampler schedules pool sampling on the given cron spec. Call Start to begin.
func NewPoolSampler(schedule string, metrics *Metrics, source StatsSource, logger *Logger) (*PoolSampler, error) {
	s := &PoolSampler{
		cron:    cron.New(),
		metrics: metrics,
		source:  source,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.Sample); err != nil {
		return nil, fmt.Errorf("invalid pool sample schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Sample takes one snapshot
func (s *PoolSampler) Sample() {
	defer RecoverPanic(s.logger, "pool sampler")
	s.metrics.ObserveDBStats(s.source.Stats())
}

// Start runs the scheduler in its own goroutine
func (s *PoolSampler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running sample to finish
func (s *PoolSampler) Stop() {
	<-s.cron.Stop().Done()
}
