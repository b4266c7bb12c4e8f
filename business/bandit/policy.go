package bandit

// SelectionPolicy decides which arm to pull next. Implementations own
// their policy-specific mutable state (a decaying epsilon, confidence
// parameters) and draw randomness only from the generator injected at
// construction, never from the global source.
type SelectionPolicy interface {
	// Choose returns the index of the arm to pull. Deterministic given
	// a fixed random source.
	Choose(stats []ArmStats, totalIterations int) int

	// OnUpdate runs after the coordinator has already recorded the
	// reward on the chosen arm. It must not repeat that update.
	OnUpdate(arm int, reward float64, totalIterations int)
}
