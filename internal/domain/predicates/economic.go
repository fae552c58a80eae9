package predicates

import (
	"fmt"
	"strconv"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// EconomicRealism checks that the estimated cost of exercising the
// hypothesis is strictly below the feasibility threshold. A threshold of
// zero or less means none was supplied.
func EconomicRealism(h m.Hypothesis, threshold float64) m.Evidence {
	if h.Cost == nil {
		return m.Unknown("no cost estimate")
	}

	if threshold <= 0 {
		return m.Unknown("no feasibility threshold")
	}

	cost := formatAmount(h.Cost.Amount) + " " + h.Cost.Unit
	limit := formatAmount(threshold)

	if h.Cost.Amount < threshold {
		return m.Known(true, fmt.Sprintf("cost %s is below threshold %s", cost, limit))
	}

	return m.Known(false, fmt.Sprintf("cost %s is not below threshold %s", cost, limit))
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
