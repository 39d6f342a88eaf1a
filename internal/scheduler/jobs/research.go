package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-research/internal/quality"
	"github.com/wonny/aegis-research/internal/research"
	"github.com/wonny/aegis-research/pkg/logger"
)

// ResearchJob runs the configured query for the latest session and publishes the result
// ⭐ SSOT: 정기 리서치 실행은 이 Job에서만
type ResearchJob struct {
	service  *research.Service
	gate     *quality.Gate
	schedule string
	now      func() time.Time
	logger   *logger.Logger
}

// NewResearchJob creates a new research job. schedule is a six-field cron expression.
// gate may be nil to skip the coverage check.
func NewResearchJob(service *research.Service, gate *quality.Gate, schedule string, log *logger.Logger) *ResearchJob {
	return &ResearchJob{
		service:  service,
		gate:     gate,
		schedule: schedule,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   log.WithComponent("research_job"),
	}
}

// Name returns the job name
func (j *ResearchJob) Name() string {
	return "industry_research"
}

// Schedule returns the cron schedule (weekdays after the close by default)
func (j *ResearchJob) Schedule() string {
	return j.schedule
}

// Run executes the query for the latest session and stores it in the result cache
func (j *ResearchJob) Run(ctx context.Context) error {
	date, err := j.service.LatestSession(ctx, j.now())
	if err != nil {
		return err
	}

	q, err := j.service.Query("", -1)
	if err != nil {
		return fmt.Errorf("assemble query: %w", err)
	}

	// 1. Coverage check (경고만, 실행은 계속)
	if j.gate != nil {
		snapshot, err := j.gate.Check(ctx, q, date)
		if err != nil {
			return fmt.Errorf("coverage check: %w", err)
		}
		if !snapshot.IsValid() {
			j.logger.WithFields(map[string]interface{}{
				"universe": snapshot.Universe,
				"score":    snapshot.Score,
				"failing":  snapshot.Failing,
			}).Warn("Data coverage below threshold, but continuing with research run")
		}
	}

	// 2. Run and publish
	table, err := j.service.Run(ctx, q, date, date)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	if err := j.service.Publish(ctx, table); err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"rows":     table.Len(),
		"warnings": len(table.Warnings),
		"run_id":   table.RunID,
	}).Info("Research result published")

	return nil
}
