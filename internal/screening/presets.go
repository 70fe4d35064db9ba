package screening

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wonny/vnequity/internal/contracts"
)

// Preset is a named list of criteria
type Preset struct {
	Name     string                     `json:"name" yaml:"name"`
	Criteria []contracts.RangeCriterion `json:"criteria" yaml:"-"`
}

// ErrUnknownPreset is returned for a preset name that is not configured
var ErrUnknownPreset = errors.New("unknown preset")

// Built-in preset names
const (
	PresetValue    = "Value Investing"
	PresetGrowth   = "Growth Investing"
	PresetDividend = "Dividend Stocks"
	PresetQuality  = "Quality Stocks"
)

// DefaultPresets returns the built-in screening presets
func DefaultPresets() map[string]Preset {
	return map[string]Preset{
		PresetValue: {Name: PresetValue, Criteria: []contracts.RangeCriterion{
			contracts.Between("PE_EOQ", 0, 15),
			contracts.Between("PB_EOQ", 0, 1.5),
			contracts.Between("ROAE", 12, 100),
			contracts.Between("DEBTS_RATIO", 0, 0.6),
		}},
		PresetGrowth: {Name: PresetGrowth, Criteria: []contracts.RangeCriterion{
			contracts.Between("MARKET_CAP_EOQ_GYOY", 15, 100),
			contracts.Between("ROAE", 15, 100),
			contracts.Between("NET_INCOME_MARGIN_12M", 10, 100),
		}},
		PresetDividend: {Name: PresetDividend, Criteria: []contracts.RangeCriterion{
			contracts.Between("DIVIDEND_YIELD_EOQ", 4, 100),
			contracts.Between("ROAE", 10, 100),
			contracts.Between("DIVIDEND_PAYOUT", 0, 70),
		}},
		PresetQuality: {Name: PresetQuality, Criteria: []contracts.RangeCriterion{
			contracts.Between("ROAE", 20, 100),
			contracts.Between("ROIC", 15, 100),
			contracts.Between("DEBTS_RATIO", 0, 0.5),
			contracts.Between("Z_SCORE", 3, 100),
		}},
	}
}

// PresetNames returns preset names sorted
func PresetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupPreset finds a preset by name
func LookupPreset(presets map[string]Preset, name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w %q", ErrUnknownPreset, name)
	}
	return p, nil
}
