package bandit

// Per-arm pull statistics. AverageReward is an incrementally updated
// running mean, never a stored sum, and equals the exact arithmetic
// mean of every reward the arm has received.
type ArmStats struct {
	PullCount     int     `json:"pull_count"`
	AverageReward float64 `json:"average_reward"`
}

// Record folds one reward into the running mean. The pull count is
// incremented before the division, so it is always >= 1 there.
func (a *ArmStats) Record(reward float64) {
	a.PullCount++
	a.AverageReward += (reward - a.AverageReward) / float64(a.PullCount)
}

// BestArm returns the arm with the highest average reward, first index
// on ties.
func BestArm(stats []ArmStats) int {
	best := 0
	for i := 1; i < len(stats); i++ {
		if stats[i].AverageReward > stats[best].AverageReward {
			best = i
		}
	}
	return best
}

// PercentagePulled returns each arm's share of all pulls so far.
// Before any pull it returns an all-zero vector.
func PercentagePulled(stats []ArmStats) []float64 {
	total := 0
	for _, s := range stats {
		total += s.PullCount
	}
	pct := make([]float64, len(stats))
	if total == 0 {
		return pct
	}
	for i, s := range stats {
		pct[i] = float64(s.PullCount) / float64(total)
	}
	return pct
}
