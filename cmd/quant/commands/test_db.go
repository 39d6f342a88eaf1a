package commands

import (
	"context"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-research/internal/store"
	"github.com/wonny/aegis-research/pkg/config"
	"github.com/wonny/aegis-research/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "PostgreSQL 연결 테스트",
	Long: `데이터베이스 연결을 테스트하고 풀 통계를 표시합니다.

이 명령어는:
- config에서 DATABASE_URL 로드
- 데이터베이스 연결 생성
- Ping 테스트
- Health Check 실행
- 펀더멘털 스키마 확인 (data.fundamental_values, data.liquid_universe)
- Connection Pool 통계 표시

Example:
  go run ./cmd/quant test-db
  go run ./cmd/quant test-db --env production`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	PrintHeader(out, "Database Connection Test")

	storeBackend = config.StorePostgres
	cfg, err := loadConfig()
	if err != nil {
		PrintError(out, "Failed to load config: %v", err)
		return err
	}
	PrintSuccess(out, "Config loaded (ENV: %s)", cfg.Env)
	PrintKeyValue(out, "Database URL", maskPassword(cfg.Database.URL), 12)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	if err != nil {
		PrintError(out, "Failed to connect to database: %v", err)
		return err
	}
	defer db.Close()
	PrintSuccess(out, "Database connection established")

	status, err := db.HealthCheck(ctx)
	if err != nil {
		PrintError(out, "Health check failed: %v", err)
		return err
	}
	PrintSuccess(out, "Ping %v", status.ResponseTime)

	p, err := store.NewPostgresProvider(ctx, db.Pool, store.StandardFields...)
	if err != nil {
		PrintError(out, "Schema check failed: %v", err)
		return err
	}
	PrintSuccess(out, "Schema ready (%d fields)", len(p.Fields()))

	PrintSeparator(out)
	PrintKeyValue(out, "Max Connections", status.Stats.MaxConns, 20)
	PrintKeyValue(out, "Total Connections", status.Stats.TotalConns, 20)
	PrintKeyValue(out, "Acquired Connections", status.Stats.AcquiredConns, 20)
	PrintKeyValue(out, "Idle Connections", status.Stats.IdleConns, 20)
	PrintKeyValue(out, "Acquire Count", status.Stats.AcquireCount, 20)
	return nil
}

// maskPassword hides the password in a postgres URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
