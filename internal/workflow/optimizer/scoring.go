package optimizer

import (
	"math"

	"github.com/kingrea/waypoint/internal/workflow"
)

// Quality rewards coverage and thoroughness and penalises overall risk.
func Quality(r workflow.RiskScore) float64 {
	return clamp(100 - r.Incompleteness + 0.5*r.Complexity - 0.3*r.Overall)
}

// ExpectedGain estimates the information a path yields.
func ExpectedGain(r workflow.RiskScore) float64 {
	return clamp(0.7*(100-r.Incompleteness) + math.Min(30, 0.3*r.Complexity))
}

// ROI is expected gain per thousand cost units. A path that costs nothing
// has an ROI of zero.
func ROI(gain float64, units int) float64 {
	if units <= 0 {
		return 0
	}
	return gain / (float64(units) / 1000)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
