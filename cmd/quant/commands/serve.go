package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-research/internal/api"
	"github.com/wonny/aegis-research/internal/api/handlers"
	"github.com/wonny/aegis-research/internal/quality"
	"github.com/wonny/aegis-research/internal/scheduler"
	"github.com/wonny/aegis-research/internal/scheduler/jobs"
	"github.com/wonny/aegis-research/pkg/redis"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 + 스케줄러 시작",
	Long: `REST API 서버와 리서치 스케줄러를 시작합니다.

Endpoints:
  GET /health               - Health check
  GET /api/industries       - 업종 옵션
  GET /api/columns          - 쿼리 컬럼 (?industry=&quarters=)
  GET /api/results          - 세션 결과 (?date=&industry=&quarters=)
  GET /api/results/latest   - 스케줄러가 마지막으로 게시한 결과
  GET /api/jobs             - 스케줄 작업 상태

Example:
  go run ./cmd/quant serve
  go run ./cmd/quant serve --port 8080 --no-scheduler`,
	RunE: runServe,
}

var (
	servePort        string
	serveNoScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default: PORT)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "스케줄러 비활성화")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := bootstrap(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	var jobsHandler *handlers.JobsHandler
	var sched *scheduler.Scheduler
	if !serveNoScheduler {
		sched = scheduler.New(a.log)
		if err := sched.AddJob(jobs.NewResearchJob(a.service, quality.NewGate(a.backend, quality.DefaultConfig), a.cfg.Research.Schedule, a.log)); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		jobsHandler = handlers.NewJobsHandler(sched)
	}

	router := api.NewRouter(api.RouterDeps{
		Research:    handlers.NewResearchHandler(a.service, a.log),
		Jobs:        jobsHandler,
		RateLimiter: redis.NewRateLimiter(a.redis, "research"),
		RatePerSec:  a.cfg.APIRateLimit,
		RateBurst:   a.cfg.APIRateBurst,
		Logger:      a.log,
	})
	server := api.New(a.cfg, a.log, router)

	out := cmd.OutOrStdout()
	PrintSuccess(out, "Server running on http://localhost:%s", a.cfg.Port)
	if sched != nil {
		PrintKeyValue(out, "Schedule", a.cfg.Research.Schedule, 8)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(sigCtx); err != nil {
		return err
	}
	a.log.Info("Server stopped")
	return nil
}
