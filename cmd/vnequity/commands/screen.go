package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/export"
	"github.com/wonny/vnequity/internal/pipeline"
	"github.com/wonny/vnequity/internal/scoring"
	"github.com/wonny/vnequity/pkg/objectstore"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "스크리닝 + 스코어링 실행",
	Long: `스냅샷 테이블을 스크리닝하고 가중 점수로 랭킹합니다.

파이프라인:
  기간 선택 → 그룹/업종 필터 → 범위 조건 → 재무 지표 보강 → 점수 → 랭킹

Examples:
  go run ./cmd/vnequity screen --preset "Value Investing"
  go run ./cmd/vnequity screen --where "ROAE>=15" --where "PE_EOQ<=12" --limit 20
  go run ./cmd/vnequity screen --group bank --period 2024Q2
  go run ./cmd/vnequity screen --kind industry --sort ROAE
  go run ./cmd/vnequity screen --preset "Quality Stocks" --out result.xlsx
  go run ./cmd/vnequity screen --preset "Quality Stocks" --upload exports/quality.csv`,
	RunE: runScreen,
}

var (
	screenKind       string
	screenPreset     string
	screenWhere      []string
	screenPeriod     string
	screenAllPeriods bool
	screenGroups     []string
	screenIndustry   string
	screenSpec       string
	screenBasis      string
	screenSort       string
	screenAscending  bool
	screenLimit      int
	screenSkipEnrich bool
	screenCheckROE   bool
	screenColumns    []string
	screenOut        string
	screenUpload     string
)

func init() {
	rootCmd.AddCommand(screenCmd)

	// Flags
	screenCmd.Flags().StringVar(&screenKind, "kind", string(contracts.KindTicker), "snapshot table (ticker|industry)")
	screenCmd.Flags().StringVar(&screenPreset, "preset", "", "preset name (see: presets)")
	screenCmd.Flags().StringArrayVar(&screenWhere, "where", nil, "range criterion, e.g. ROAE>=15, PE_EOQ<=12, PB_EOQ=0:1.5")
	screenCmd.Flags().StringVar(&screenPeriod, "period", "", "quarter, e.g. 2024Q2 (default: latest per entity)")
	screenCmd.Flags().BoolVar(&screenAllPeriods, "all-periods", false, "keep every period")
	screenCmd.Flags().StringSliceVar(&screenGroups, "group", nil, "CAL_GROUP filter (company,bank,security,insurance)")
	screenCmd.Flags().StringVar(&screenIndustry, "industry", "", "industry filter (LEVEL2_NAME_EN)")
	screenCmd.Flags().StringVar(&screenSpec, "spec", "", "weight spec name")
	screenCmd.Flags().StringVar(&screenBasis, "basis", "", "scale basis (query|reference)")
	screenCmd.Flags().StringVar(&screenSort, "sort", catalog.ScoreColumn, "sort column")
	screenCmd.Flags().BoolVar(&screenAscending, "asc", false, "ascending sort")
	screenCmd.Flags().IntVar(&screenLimit, "limit", 0, "max rows (default from screening config)")
	screenCmd.Flags().BoolVar(&screenSkipEnrich, "skip-enrich", false, "skip derived fundamentals")
	screenCmd.Flags().BoolVar(&screenCheckROE, "check-roe", false, "warn when DuPont ROE drifts from reported ROE")
	screenCmd.Flags().StringSliceVar(&screenColumns, "columns", nil, "metric columns to print/export")
	screenCmd.Flags().StringVar(&screenOut, "out", "", "write result to a .csv or .xlsx file")
	screenCmd.Flags().StringVar(&screenUpload, "upload", "", "upload result to object storage at this path (.csv or .xlsx)")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	req, err := buildScreenRequest(a)
	if err != nil {
		return err
	}

	ds, err := a.table(ctx, contracts.Kind(screenKind))
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := a.orchestrator.Run(ctx, ds, req)
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}

	fields := [][2]string{
		{"Table", screenKind},
		{"Spec", result.Spec},
		{"Returned", fmt.Sprintf("%d", result.Dataset.Len())},
		{"Duration", time.Since(start).Round(time.Millisecond).String()},
	}
	if req.Preset != "" {
		fields = append([][2]string{{"Preset", req.Preset}}, fields...)
	}
	PrintHeader("Screening Result", fields)
	for _, s := range result.Stages {
		PrintKeyValue(s.Stage, fmt.Sprintf("%d rows", s.Rows), 8)
	}
	PrintSeparator()

	printRanked(result.Dataset, screenColumns)

	limit := 5
	if verbose {
		limit = len(result.Warnings)
	}
	PrintWarnings(result.Warnings, limit)

	opts := export.Options{Columns: screenColumns}
	if screenOut != "" {
		if err := writeExport(screenOut, result.Dataset, opts); err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("Saved %s", screenOut))
	}
	if screenUpload != "" {
		format, err := formatOf(screenUpload)
		if err != nil {
			return err
		}
		exporter := export.NewExporter(objectstore.NewS3(a.cfg.S3), a.log)
		if err := exporter.Upload(ctx, screenUpload, format, result.Dataset, opts); err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("Uploaded s3://%s/%s", a.cfg.S3.Bucket, screenUpload))
	}
	return nil
}

func buildScreenRequest(a *app) (pipeline.Request, error) {
	req := pipeline.Request{
		AllPeriods: screenAllPeriods,
		Groups:     screenGroups,
		Industry:   screenIndustry,
		Preset:     screenPreset,
		Spec:       screenSpec,
		Basis:      scoring.Basis(screenBasis),
		SkipEnrich: screenSkipEnrich,
		CheckROE:   screenCheckROE || a.screenConfig.Enrich.CheckROE,
		Tolerance:  a.screenConfig.Enrich.ROETolerance,
		SortBy:     screenSort,
		Ascending:  screenAscending,
		Limit:      screenLimit,
	}
	if req.Basis == "" {
		req.Basis = a.screenConfig.Basis()
	}
	if req.Limit == 0 {
		req.Limit = a.screenConfig.Ranking.DefaultLimit
	}
	if screenPeriod != "" {
		p, err := contracts.ParsePeriod(strings.ToUpper(screenPeriod))
		if err != nil {
			return req, err
		}
		req.Period = p
	}
	for _, w := range screenWhere {
		c, err := parseCriterion(w)
		if err != nil {
			return req, err
		}
		req.Criteria = append(req.Criteria, c)
	}
	return req, nil
}

// parseCriterion reads METRIC>=x, METRIC<=x or METRIC=min:max
func parseCriterion(s string) (contracts.RangeCriterion, error) {
	s = strings.ReplaceAll(s, " ", "")
	bad := fmt.Errorf("%w: %q (want METRIC>=x, METRIC<=x or METRIC=min:max)", contracts.ErrInvalidCriterion, s)

	for _, op := range []string{">=", "<="} {
		metric, raw, ok := strings.Cut(s, op)
		if !ok {
			continue
		}
		v, err := contracts.ParseValue(raw)
		if err != nil || v.IsNull() || metric == "" {
			return contracts.RangeCriterion{}, bad
		}
		c := contracts.RangeCriterion{Metric: strings.ToUpper(metric), Min: contracts.Null(), Max: contracts.Null()}
		if op == ">=" {
			c.Min = v
		} else {
			c.Max = v
		}
		return c, c.Validate()
	}

	metric, bounds, ok := strings.Cut(s, "=")
	if !ok || metric == "" {
		return contracts.RangeCriterion{}, bad
	}
	lo, hi, ok := strings.Cut(bounds, ":")
	if !ok {
		return contracts.RangeCriterion{}, bad
	}
	min, err := contracts.ParseValue(lo)
	if err != nil {
		return contracts.RangeCriterion{}, bad
	}
	max, err := contracts.ParseValue(hi)
	if err != nil {
		return contracts.RangeCriterion{}, bad
	}
	c := contracts.RangeCriterion{Metric: strings.ToUpper(metric), Min: min, Max: max}
	return c, c.Validate()
}

// printRanked prints the ranked rows with the given (or a default) column set
func printRanked(ds *contracts.Dataset, columns []string) {
	if ds.Len() == 0 {
		PrintInfo("No rows passed the screen")
		return
	}
	if len(columns) == 0 {
		for _, c := range []string{catalog.ScoreColumn, "PE_EOQ", "PB_EOQ", "ROAE", "ROAA"} {
			if ds.HasColumn(c) {
				columns = append(columns, c)
			}
		}
	}

	header := []string{"#", "Symbol", "Period"}
	widths := []int{4, 8, 7}
	for _, c := range columns {
		label := catalog.Label(c)
		w := len(label)
		if w < 10 {
			w = 10
		}
		if w > 18 {
			w = 18
		}
		header = append(header, label)
		widths = append(widths, w)
	}

	fmt.Println()
	PrintTableHeader(header, widths)
	for i, row := range ds.Rows() {
		values := []string{fmt.Sprintf("%d", i+1), row.Entity, row.Period.String()}
		for _, c := range columns {
			values = append(values, catalog.FormatValue(c, row.Value(c)))
		}
		PrintTableRow(values, widths)
	}
}

func formatOf(path string) (export.Format, error) {
	return export.ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

func writeExport(path string, ds *contracts.Dataset, opts export.Options) error {
	format, err := formatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return export.Write(f, format, ds, opts)
}
