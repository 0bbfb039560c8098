package board

// Outcome of a (sub-)board, also used to mark the side to move
type Side uint8

const (
	Undetermined Side = iota
	X
	O
	Draw
)

func (s Side) String() string {
	switch s {
	case X:
		return "X"
	case O:
		return "O"
	case Draw:
		return "D"
	default:
		return "U"
	}
}

// Returns the opponent of X or O, any other value is returned as is
func (s Side) Other() Side {
	switch s {
	case X:
		return O
	case O:
		return X
	}
	return s
}
