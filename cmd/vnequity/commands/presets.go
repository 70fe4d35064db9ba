package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/vnequity/internal/screenconfig"
	"github.com/wonny/vnequity/internal/screening"
)

// presetsCmd represents the presets command
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "프리셋/가중치 스펙 조회",
	Long: `설정된 스크리닝 프리셋과 점수 가중치 스펙을 보여줍니다.

Examples:
  go run ./cmd/vnequity presets
  go run ./cmd/vnequity presets validate config/screening.yaml`,
	RunE: runPresets,
}

var presetsValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "스크리닝 YAML 검증",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsValidate,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsValidateCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	presets := a.orchestrator.Presets()
	PrintHeader("Screening Presets", [][2]string{
		{"Config", a.screenConfig.Meta.ConfigID},
		{"Presets", fmt.Sprintf("%d", len(presets))},
	})
	for _, name := range screening.PresetNames(presets) {
		fmt.Printf("\n  %s\n", name)
		PrintList([]string{screening.Describe(presets[name].Criteria)})
	}

	fmt.Println()
	PrintSeparator()
	specs := a.orchestrator.Specs()
	for _, name := range sortedKeys(specs) {
		fmt.Printf("\n  spec: %s\n", name)
		for _, m := range specs[name].Metrics {
			PrintKeyValue(m.Metric, fmt.Sprintf("%.2f (%s)", m.Weight, m.Direction), 24)
		}
	}
	return nil
}

func runPresetsValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := screenconfig.Load(args[0])
	if err != nil {
		return err
	}
	hash, err := screenconfig.Hash(cfg)
	if err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("%s is valid (config_id=%s, version=%s)", args[0], cfg.Meta.ConfigID, cfg.Meta.Version))
	PrintKeyValue("sha256", hash, 8)
	for _, w := range screenconfig.Warn(cfg) {
		fmt.Printf("⚠️  [%s] %s\n", w.Code, w.Message)
	}
	return nil
}
