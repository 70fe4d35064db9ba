package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	screenConfigFile string
	dataSource       string
	verbose          bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vnequity",
	Short: "Vietnamese equity screening and scoring engine",
	Long: `vnequity Unified CLI

베트남 상장사 분기 스냅샷 기반 스크리닝/스코어링 엔진.
기간 선택 → 그룹 필터 → 스크리닝 → 재무 지표 보강 → 점수 → 랭킹.

Usage:
  go run ./cmd/vnequity [command]

Examples:
  go run ./cmd/vnequity screen --preset "Value Investing" --limit 20
  go run ./cmd/vnequity ticker FPT
  go run ./cmd/vnequity presets
  go run ./cmd/vnequity api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&screenConfigFile, "screen-config", "", "screening YAML (default SCREEN_CONFIG or built-in presets)")
	rootCmd.PersistentFlags().StringVar(&dataSource, "source", "", "snapshot source override (local|postgres|s3|http)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
