package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/vnequity/internal/catalog"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog [group]",
	Short: "지표 카탈로그 조회",
	Long: `지표 코드, 표시 이름, 표시 형식을 그룹별로 보여줍니다.

Examples:
  go run ./cmd/vnequity catalog
  go run ./cmd/vnequity catalog Banking
  go run ./cmd/vnequity catalog --class bank`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalog,
}

var catalogClass string

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringVar(&catalogClass, "class", "", "show the metric set of a CAL_GROUP class")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	widths := []int{28, 36, 8}

	if catalogClass != "" {
		fmt.Printf("\n  %s metrics\n", catalogClass)
		PrintTableHeader([]string{"Code", "Label", "Format"}, widths)
		for _, code := range catalog.ClassMetrics(catalogClass) {
			PrintTableRow([]string{code, catalog.Label(code), string(catalog.FormatFor(code))}, widths)
		}
		return nil
	}

	groups := catalog.Groups()
	if len(args) == 1 {
		groups = []catalog.Group{catalog.Group(args[0])}
	}

	shown := 0
	for _, g := range groups {
		codes := catalog.GroupMetrics(g)
		if len(codes) == 0 {
			continue
		}
		fmt.Printf("\n  %s\n", g)
		PrintTableHeader([]string{"Code", "Label", "Format"}, widths)
		for _, code := range codes {
			PrintTableRow([]string{code, catalog.Label(code), string(catalog.FormatFor(code))}, widths)
			shown++
		}
	}
	if shown == 0 {
		return fmt.Errorf("unknown metric group %q", args[0])
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
