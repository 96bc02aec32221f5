package planner

import "fmt"

// BudgetPlaceholder is shown by the budget select when nothing is chosen.
const BudgetPlaceholder = "hh:mm"

// DefaultPeriodMinutes are the budget choices offered by default.
var DefaultPeriodMinutes = []int{15, 30, 45, 60, 90, 120, 180, 240, 300, 360, 420, 480}

// BudgetOption is one entry of the budget select.
type BudgetOption struct {
	Label   string
	Seconds int
}

// PeriodSelectOptions builds the select options for the given minute values.
func PeriodSelectOptions(minutes []int) []BudgetOption {
	opts := make([]BudgetOption, 0, len(minutes))
	for _, m := range minutes {
		opts = append(opts, BudgetOption{
			Label:   fmt.Sprintf("%02d:%02d", m/MinutesInHour, m%MinutesInHour),
			Seconds: m * SecondsInMinute,
		})
	}
	return opts
}

// BudgetOptionFor builds an option for a budget that is not among the
// configured choices, such as one seeded from config.
func BudgetOptionFor(seconds int) BudgetOption {
	label := FormatSeconds(seconds)
	if seconds%SecondsInMinute == 0 {
		label = label[:len(label)-3]
	}
	return BudgetOption{Label: label, Seconds: seconds}
}

// BudgetFromSelection translates a select choice into SecondsToComplete.
// No selection means no budget, which is 0.
func BudgetFromSelection(opt *BudgetOption) int {
	if opt == nil {
		return 0
	}
	return opt.Seconds
}

// FindBudgetOption returns the option whose value is seconds, or nil.
func FindBudgetOption(opts []BudgetOption, seconds int) *BudgetOption {
	for i := range opts {
		if opts[i].Seconds == seconds {
			return &opts[i]
		}
	}
	return nil
}
