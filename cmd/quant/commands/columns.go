package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/wonny/aegis-research/internal/assembler"
	"github.com/wonny/aegis-research/internal/store"
	"github.com/wonny/aegis-research/internal/universe"
	"github.com/wonny/aegis-research/pkg/logger"
)

// columnsCmd represents the columns command
var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "쿼리 컬럼 목록",
	Long: `저장소 없이 표준 필드 카탈로그로 쿼리를 조립하고 컬럼을 출력합니다.

Example:
  go run ./cmd/quant columns
  go run ./cmd/quant columns --industry semiconductor --quarters 2`,
	RunE: runColumns,
}

// industriesCmd represents the industries command
var industriesCmd = &cobra.Command{
	Use:   "industries",
	Short: "업종 옵션 목록",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		PrintHeader(out, "Industry options")
		for _, ind := range universe.Industries() {
			PrintKeyValue(out, ind.Name, ind.Code, 14)
		}
		return nil
	},
}

var (
	columnsIndustry string
	columnsQuarters int
)

func init() {
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(industriesCmd)

	columnsCmd.Flags().StringVar(&columnsIndustry, "industry", "", "industry option (airline|semiconductor)")
	columnsCmd.Flags().IntVar(&columnsQuarters, "quarters", -1, "quarter snapshots per series (-1: configured)")
}

func runColumns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := loadQuery(cfg)
	if err != nil {
		return err
	}

	catalog := store.NewMemoryProvider(store.StandardFields...)
	q, err := assembler.New(catalog, logger.New(cfg)).Build(base.WithOverrides(columnsIndustry, columnsQuarters))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	PrintHeader(out, q.Name)
	PrintKeyValue(out, "Screen", q.Screen.Describe(), 8)
	PrintKeyValue(out, "Columns", q.ColumnCount(), 8)
	PrintKeyValue(out, "Hash", q.ConfigHash[:12], 8)
	fmt.Fprintln(out)

	table := tablewriter.NewTable(out,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment([]tw.Align{tw.AlignRight, tw.AlignNone, tw.AlignNone, tw.AlignRight, tw.AlignNone}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"#", "column", "kind", "window", "inputs"})
	for i, col := range q.Columns.Columns() {
		inputs := ""
		for k, f := range col.Extractor.Inputs() {
			if k > 0 {
				inputs += " / "
			}
			inputs += f.QualifiedName()
		}
		row := []string{
			fmt.Sprint(i),
			col.Name,
			string(col.Extractor.Kind()),
			fmt.Sprint(col.Extractor.WindowLength()),
			inputs,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
