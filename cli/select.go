package cli

import (
	"slices"

	"facette.io/natsort"
)

// uniqueSorted returns the distinct choices in natural order, so q10 sorts after q9.
func uniqueSorted(choices []string) []string {
	out := slices.Clone(choices)
	natsort.Sort(out)

	return slices.Compact(out)
}

// pick records value as picked and removes it from remaining. Picking the
// done item returns errDoneSelected.
func pick(remaining []string, picked map[string]bool, value string) ([]string, error) {
	if value == doneItem {
		return remaining, errDoneSelected
	}

	picked[value] = true

	return slices.DeleteFunc(remaining, func(s string) bool {
		return s == value
	}), nil
}
