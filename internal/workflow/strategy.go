package workflow

// StrategyName is the serialized tag of a path-selection strategy.
type StrategyName string

const (
	StrategyMinimizeCost    StrategyName = "minimize_cost"
	StrategyMinimizeRisk    StrategyName = "minimize_risk"
	StrategyMaximizeQuality StrategyName = "maximize_quality"
	StrategyBalanced        StrategyName = "balanced"
	StrategyUserChoice      StrategyName = "user_choice"
)

// StrategyNames lists every known strategy in display order.
func StrategyNames() []StrategyName {
	return []StrategyName{
		StrategyBalanced,
		StrategyMinimizeCost,
		StrategyMinimizeRisk,
		StrategyMaximizeQuality,
		StrategyUserChoice,
	}
}

// KnownStrategyName reports whether name matches a strategy tag.
func KnownStrategyName(name string) bool {
	for _, known := range StrategyNames() {
		if string(known) == name {
			return true
		}
	}
	return false
}
