package board

// Mask with all 9 cells of a 3x3 grid set
const filled uint16 = 0b111111111

// The 8 three-in-a-row patterns, shared by sub-boards and the meta-board
var winningLines = [8]uint16{
	0b000000111, 0b000111000, 0b111000000, // rows
	0b001001001, 0b010010010, 0b100100100, // columns
	0b100010001, 0b001010100, // diagonals
}

// wins[mask] is true if the 9-bit mask contains a winning line
var wins [1 << 9]bool

// Two-of-three patterns, nearLines[i] needs blockers[i] to complete the line
var (
	nearLines [24]uint16
	blockers  [24]uint16
)

func init() {
	for mask := range len(wins) {
		for _, line := range winningLines {
			if uint16(mask)&line == line {
				wins[mask] = true
				break
			}
		}
	}

	i := 0
	for _, line := range winningLines {
		for cell := range 9 {
			bit := uint16(1) << cell
			if line&bit == 0 {
				continue
			}
			nearLines[i] = line ^ bit
			blockers[i] = bit
			i++
		}
	}
}
