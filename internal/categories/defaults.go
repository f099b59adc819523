package categories

// Default returns the built-in vocabulary for software product work.
func Default() Vocabulary {
	return Vocabulary{Domains: map[string]map[string]map[string]float64{
		"software": {
			"discovery": {
				"goals":            0.20,
				"problem":          0.20,
				"stakeholders":     0.15,
				"scope":            0.15,
				"constraints":      0.15,
				"success_criteria": 0.15,
			},
			"analysis": {
				"requirements":   0.25,
				"user_stories":   0.20,
				"data_model":     0.15,
				"integrations":   0.15,
				"non_functional": 0.15,
				"constraints":    0.10,
			},
			"design": {
				"architecture": 0.30,
				"interfaces":   0.25,
				"data_model":   0.20,
				"security":     0.15,
				"deployment":   0.10,
			},
			"implementation": {
				"milestones": 0.30,
				"testing":    0.30,
				"risks":      0.20,
				"deployment": 0.20,
			},
		},
		// Unconstrained phases are declared with no categories.
		"research": {
			"exploration": {},
		},
	}}
}
