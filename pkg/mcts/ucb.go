package mcts

import "math"

// Default exploration constant of the UCB formula
const DefaultExploration = 1.4

// UCB score of a child as seen from its parent: the child's utility is scored
// for the opponent, so it is negated. Unvisited children come first.
func ucb(child *Stats, lnParentVisits, c float64) float64 {
	if child.N == 0 {
		return math.Inf(1)
	}
	n := float64(child.N)
	return -child.U/n + c*math.Sqrt(lnParentVisits/n)
}

func lnVisits(n int32) float64 {
	return math.Log(float64(max(n, 1)))
}
