package board

// Heuristic score of the board in [-1, 1] from X's perspective.
// Exact on finished games: 1 if X won, -1 if O won, 0 for a draw.
func (b Board) Evaluate() float64 {
	switch b.winner {
	case X:
		return 1
	case O:
		return -1
	case Draw:
		return 0
	}

	var cells [9]float64
	for i := range cells {
		bit := uint16(1) << i
		switch {
		case b.xMeta&bit != 0:
			cells[i] = 1
		case b.oMeta&bit != 0:
			cells[i] = -1
		case b.dMeta&bit != 0:
			cells[i] = 0
		default:
			cells[i] = b.subs[i].evaluate()
		}
	}

	total := 0.0
	for i := range 3 {
		total += evaluateLine(cells[3*i], cells[3*i+1], cells[3*i+2])
		total += evaluateLine(cells[i], cells[i+3], cells[i+6])
	}
	total += evaluateLine(cells[0], cells[4], cells[8])
	total += evaluateLine(cells[2], cells[4], cells[6])
	return total / 8
}

// Interpolates the mean of a meta-board line into the interval left open by
// its cells: a cell won by X lifts the lower bound, a cell won by O (or a
// drawn cell) caps the upper bound.
func evaluateLine(a, b, c float64) float64 {
	lower, upper := -1.0, 1.0
	for _, v := range [3]float64{a, b, c} {
		if v > 0 {
			lower = max(lower, v-1)
		} else {
			upper = min(upper, v+1)
		}
	}
	t := ((a+b+c)/3 + 1) / 2
	return lower + (upper-lower)*t
}
