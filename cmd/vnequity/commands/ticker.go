package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/vnequity/internal/analysis"
	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/snapshot"
)

// tickerCmd represents the ticker command
var tickerCmd = &cobra.Command{
	Use:   "ticker [symbol]",
	Short: "종목 상세 분석",
	Long: `종목 하나의 최신 분기 지표를 업종 내 위치와 함께 보여줍니다.

- Altman Z-Score (구성요소 + 구간 해석)
- DuPont 5단계 분해
- 유동성/수익성 점수
- 업종 내 백분위

Examples:
  go run ./cmd/vnequity ticker FPT
  go run ./cmd/vnequity ticker search bank`,
	Args: cobra.ExactArgs(1),
	RunE: runTicker,
}

var tickerSearchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "심볼/종목명 검색",
	Args:  cobra.ExactArgs(1),
	RunE:  runTickerSearch,
}

func init() {
	rootCmd.AddCommand(tickerCmd)
	tickerCmd.AddCommand(tickerSearchCmd)
}

func runTicker(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	ds, err := a.table(ctx, contracts.KindTicker)
	if err != nil {
		return err
	}

	an, err := analysis.NewAnalyzer(a.screenConfig.EnrichOptions(), a.log).Analyze(ds, args[0])
	if err != nil {
		return err
	}

	PrintHeader(fmt.Sprintf("%s  %s", an.Info.Symbol, an.Info.Name), [][2]string{
		{"Industry", an.Info.Industry},
		{"Group", an.Info.Group},
		{"Period", an.Period.String()},
		{"History", fmt.Sprintf("%d quarters", an.Info.Periods)},
		{"Peers", fmt.Sprintf("%d", an.Peers)},
	})

	z := an.ZScore
	PrintKeyValue("Z-Score", fmt.Sprintf("%s (%s, %s)",
		catalog.FormatAs(catalog.FormatNumber, z.ZScore), an.Interpretation.Category, an.Interpretation.Description), 14)
	if missing := z.Missing(); len(missing) > 0 {
		PrintKeyValue("Z missing", fmt.Sprintf("%v", missing), 14)
	}
	d := an.DuPont
	PrintKeyValue("DuPont ROE", catalog.FormatAs(catalog.FormatNumber, d.ImpliedROE), 14)
	PrintKeyValue("Liquidity", catalog.FormatAs(catalog.FormatNumber, an.Liquidity), 14)
	PrintKeyValue("Profitability", catalog.FormatAs(catalog.FormatNumber, an.Profitability), 14)
	PrintSeparator()

	widths := []int{24, 12, 10, 12}
	PrintTableHeader([]string{"Metric", "Value", "Peer pct", "Peer median"}, widths)
	for _, m := range an.Metrics {
		median := catalog.NA
		if m.PeerSummary != nil {
			median = catalog.FormatValue(m.Code, contracts.Some(m.PeerSummary.Median))
		}
		pct := catalog.NA
		if p, ok := m.PeerPercentile.Get(); ok {
			pct = fmt.Sprintf("%.0f%%", p)
		}
		PrintTableRow([]string{m.Label, m.Display, pct, median}, widths)
	}

	limit := 5
	if verbose {
		limit = len(an.Warnings)
	}
	PrintWarnings(an.Warnings, limit)
	return nil
}

func runTickerSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	ds, err := a.table(ctx, contracts.KindTicker)
	if err != nil {
		return err
	}

	symbols := snapshot.Search(ds, args[0])
	if len(symbols) == 0 {
		PrintInfo(fmt.Sprintf("No ticker matches %q", args[0]))
		return nil
	}

	widths := []int{8, 30, 28, 10, 7}
	fmt.Println()
	PrintTableHeader([]string{"Symbol", "Name", "Industry", "Group", "Latest"}, widths)
	for _, s := range symbols {
		info, _ := snapshot.TickerInfo(ds, s)
		PrintTableRow([]string{info.Symbol, info.Name, info.Industry, info.Group, info.Latest.String()}, widths)
	}
	return nil
}
