package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-research/internal/quality"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "데이터 커버리지 검증",
	Long: `스크린 통과 종목 중 쿼리 입력 필드 값이 있는 비율을 필드별로 출력합니다.

Example:
  go run ./cmd/quant check --date 2017-07-26
  go run ./cmd/quant check --date 2017-07-26 --min-coverage 0.9`,
	RunE: runCheck,
}

var (
	checkDate        string
	checkIndustry    string
	checkMinCoverage float64
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkDate, "date", "", "session (YYYY-MM-DD, default: latest session)")
	checkCmd.Flags().StringVar(&checkIndustry, "industry", "", "industry option (airline|semiconductor)")
	checkCmd.Flags().Float64Var(&checkMinCoverage, "min-coverage", quality.DefaultConfig.MinCoverage, "minimum coverage per field")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := bootstrap(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	date, _, err := parseRange(checkDate, "", "")
	if err != nil {
		return err
	}
	if date.IsZero() {
		if date, err = a.service.LatestSession(ctx, time.Now().UTC()); err != nil {
			return err
		}
	}

	q, err := a.service.Query(checkIndustry, -1)
	if err != nil {
		return err
	}

	snapshot, err := quality.NewGate(a.backend, quality.Config{MinCoverage: checkMinCoverage}).Check(ctx, q, date)
	if err != nil {
		return err
	}

	PrintHeader(out, fmt.Sprintf("Coverage %s", date.Format("2006-01-02")))
	PrintKeyValue(out, "Screen", q.Screen.Describe(), 8)
	PrintKeyValue(out, "Universe", snapshot.Universe, 8)
	PrintSeparator(out)

	names := make([]string, 0, len(snapshot.Coverage))
	for name := range snapshot.Coverage {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		PrintKeyValue(out, name, fmt.Sprintf("%6.1f%%", snapshot.Coverage[name]*100), 44)
	}
	PrintSeparator(out)

	if snapshot.IsValid() {
		PrintSuccess(out, "score %.3f", snapshot.Score)
		return nil
	}
	PrintWarning(out, "score %.3f, %d field(s) below %.0f%%", snapshot.Score, len(snapshot.Failing), checkMinCoverage*100)
	return nil
}
