package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/internal/render"
	"github.com/wonny/aegis-research/internal/store"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "리서치 쿼리 실행",
	Long: `스크린과 컬럼을 조립해 지정한 세션(들)에 대해 실행합니다.

결과는 stdout, 로그는 stderr 로 출력됩니다.
--csv 를 주면 설정된 저장소 대신 CSV 를 메모리에 적재해 실행합니다.

Example:
  go run ./cmd/quant run --date 2017-07-26
  go run ./cmd/quant run --start 2017-07-24 --end 2017-07-28 --format json
  go run ./cmd/quant run --date 2017-07-26 --industry semiconductor --quarters 4
  go run ./cmd/quant run --date 2017-07-26 --csv testdata/fundamentals.csv`,
	RunE: runQuery,
}

var (
	runDate      string
	runStart     string
	runEnd       string
	runIndustry  string
	runQuarters  int
	runFormat    string
	runFlat      bool
	runPrecision int
	runCSV       []string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDate, "date", "", "single session (YYYY-MM-DD, default: latest session)")
	runCmd.Flags().StringVar(&runStart, "start", "", "range start (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "range end (YYYY-MM-DD, default: start)")
	runCmd.Flags().StringVar(&runIndustry, "industry", "", "industry option (airline|semiconductor)")
	runCmd.Flags().IntVar(&runQuarters, "quarters", -1, "quarter snapshots per series (-1: configured)")
	runCmd.Flags().StringVar(&runFormat, "format", "table", "output format (table|json)")
	runCmd.Flags().BoolVar(&runFlat, "flat", false, "one row per (date, asset) instead of the transposed view")
	runCmd.Flags().IntVar(&runPrecision, "precision", render.DefaultOptions.Precision, "decimals in table output")
	runCmd.Flags().StringSliceVar(&runCSV, "csv", nil, "CSV files to load into an in-memory store")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if runFormat != "table" && runFormat != "json" {
		return fmt.Errorf("unknown format %q (expected table or json)", runFormat)
	}

	var backend store.Backend
	if len(runCSV) > 0 {
		mem := store.NewMemoryProvider(store.StandardFields...)
		if err := loadCSVFiles(ctx, mem, runCSV, nil); err != nil {
			return err
		}
		backend = mem
	}

	a, err := bootstrap(ctx, backend)
	if err != nil {
		return err
	}
	defer a.Close()

	start, end, err := parseRange(runDate, runStart, runEnd)
	if err != nil {
		return err
	}
	if start.IsZero() {
		latest, err := a.service.LatestSession(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		start, end = latest, latest
	}

	q, err := a.service.Query(runIndustry, runQuarters)
	if err != nil {
		return err
	}

	table, err := a.service.Run(ctx, q, start, end)
	if err != nil {
		return err
	}

	a.log.WithFields(map[string]interface{}{
		"stage":  contracts.StageRender,
		"format": runFormat,
		"rows":   table.Len(),
	}).Debug("Rendering result")

	return writeResult(cmd.OutOrStdout(), table)
}

func writeResult(w io.Writer, table *contracts.ResultTable) error {
	if runFormat == "json" {
		return render.JSON(w, table)
	}
	return render.Table(w, table, render.Options{Precision: runPrecision, Transpose: !runFlat})
}

// parseRange resolves --date / --start / --end. Zero times mean "latest session".
func parseRange(date, start, end string) (time.Time, time.Time, error) {
	if date != "" && (start != "" || end != "") {
		return time.Time{}, time.Time{}, fmt.Errorf("--date cannot be combined with --start/--end")
	}
	if date != "" {
		start = date
	}
	if start == "" {
		if end != "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--end requires --start")
		}
		return time.Time{}, time.Time{}, nil
	}

	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", start)
	}
	if end == "" {
		return s, s, nil
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", end)
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end %s is before --start %s", end, start)
	}
	return s, e, nil
}

// loadCSVFiles loads each file into sink, reporting per-file stats to out when non-nil
func loadCSVFiles(ctx context.Context, sink store.Sink, paths []string, out io.Writer) error {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		stats, err := store.LoadCSV(ctx, f, sink)
		f.Close()
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		if out != nil {
			PrintSuccess(out, "%s: %d rows (%s), %d skipped", path, stats.Rows, stats.Layout, stats.Skipped)
		}
	}
	return nil
}
