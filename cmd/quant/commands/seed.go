package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-research/internal/store"
	"github.com/wonny/aegis-research/pkg/config"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "CSV 펀더멘털 적재",
	Long: `CSV 파일을 설정된 저장소(postgres|badger)에 적재합니다.

지원 헤더:
  date,asset,field,value   - 필드 값 (빈 값은 건너뜀, NaN 허용)
  date,asset,liquid        - 유동성 유니버스 플래그

Example:
  go run ./cmd/quant seed --csv data/values.csv --csv data/liquid.csv
  go run ./cmd/quant seed --csv data/values.csv --store badger
  go run ./cmd/quant seed --csv data/values.csv --dry-run`,
	RunE: runSeed,
}

var (
	seedFiles  []string
	seedDryRun bool
)

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringSliceVar(&seedFiles, "csv", nil, "CSV files to load (repeatable)")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "parse into memory only")
	_ = seedCmd.MarkFlagRequired("csv")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if seedDryRun {
		storeBackend = config.StoreMemory
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backend, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer closeStore()

	PrintHeader(out, fmt.Sprintf("Seed (%s)", cfg.Store.Backend))
	if err := loadCSVFiles(ctx, backend, seedFiles, out); err != nil {
		PrintError(out, "%v", err)
		return err
	}

	fields := backend.Fields()
	PrintSeparator(out)
	PrintKeyValue(out, "Fields", len(fields), 8)
	if seedDryRun {
		PrintWarning(out, "dry run: nothing was persisted")
	}
	return nil
}
