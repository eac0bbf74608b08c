package risk

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// formatDollars renders a whole-dollar amount with thousands separators.
func formatDollars(v float64) string {
	return printer().Sprintf("$%d", int64(math.Round(v)))
}

// formatCents renders a minor-unit amount as whole dollars.
func formatCents(cents int64) string {
	return formatDollars(float64(cents) / 100)
}

// formatPercent renders a ratio (0.72) as a whole percentage ("72%").
func formatPercent(ratio float64) string {
	return printer().Sprintf("%d%%", int64(math.Round(ratio*100)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return printer().Sprintf("%d %s", n, one)
	}
	return printer().Sprintf("%d %s", n, many)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
