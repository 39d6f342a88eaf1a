package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-research/internal/quality"
	"github.com/wonny/aegis-research/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄 작업 관리",
	Long: `스케줄 작업을 조회하거나 즉시 실행합니다.
데몬 실행은 serve 명령어를 사용합니다.

Example:
  go run ./cmd/quant scheduler run`,
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "리서치 작업 1회 실행 (최신 세션 결과 게시)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := bootstrap(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		job := jobs.NewResearchJob(a.service, quality.NewGate(a.backend, quality.DefaultConfig), a.cfg.Research.Schedule, a.log)
		PrintHeader(out, job.Name())

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			PrintError(out, "%v", err)
			return err
		}
		if !a.redis.Enabled() {
			PrintWarning(out, "REDIS_ENABLED=false: result was computed but not published")
		}
		PrintSuccess(out, "completed in %.2fs", time.Since(start).Seconds())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}
