package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	queryFile    string
	env          string
	storeBackend string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Aegis Research - 업종 펀더멘털 팩터 리서치",
	Long: `Aegis Research CLI

유동성 유니버스 ∩ 업종 스크린 위에서 펀더멘털 컬럼과
분기별(64 세션) 시계열 스냅샷을 계산합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant run --date 2017-07-26
  go run ./cmd/quant run --date 2017-07-26 --industry semiconductor --format json
  go run ./cmd/quant columns --quarters 2
  go run ./cmd/quant seed --csv data/fundamentals.csv
  go run ./cmd/quant serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&queryFile, "config", "", "research query YAML (default: RESEARCH_CONFIG or built-in query)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "store backend (postgres|badger|memory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
