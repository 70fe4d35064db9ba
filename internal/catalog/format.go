package catalog

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wonny/vnequity/internal/contracts"
)

// NA is rendered for undefined values. It is never rendered as 0.
const NA = "N/A"

var printer = message.NewPrinter(language.English)

// FormatValue renders v for display according to the metric's format class
func FormatValue(code string, v contracts.Value) string {
	return FormatAs(FormatFor(code), v)
}

// FormatAs renders v with an explicit format class.
// Percent values are already expressed in percent units.
func FormatAs(f Format, v contracts.Value) string {
	x, ok := v.Get()
	if !ok {
		return NA
	}

	switch f {
	case FormatPercent:
		return printer.Sprintf("%.2f%%", x)
	case FormatBillion:
		return printer.Sprintf("%.2f bn", x/1e9)
	case FormatPrice:
		return printer.Sprintf("%.2f", x)
	case FormatRatio:
		// negative multiples (loss-making P/E) carry no meaning
		if x < 0 {
			return NA
		}
		return printer.Sprintf("%.2f", x)
	}

	switch abs := absf(x); {
	case abs >= 1e9:
		return printer.Sprintf("%.2fB", x/1e9)
	case abs >= 1e6:
		return printer.Sprintf("%.2fM", x/1e6)
	case abs >= 1e3:
		return printer.Sprintf("%.2fK", x/1e3)
	}
	return printer.Sprintf("%.2f", x)
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
