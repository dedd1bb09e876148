package engine

import "strconv"

// BaseDenominations is the ordered set of placeable coin values
var BaseDenominations = []Denomination{One, Five, Ten, Fifty, Hundred, FiveHundred}

// Successor returns the next value in the promotion sequence
// 1→5→10→50→100→500→1000. It returns Empty for values outside the sequence.
func (d Denomination) Successor() Denomination {
	switch d {
	case One:
		return Five
	case Five:
		return Ten
	case Ten:
		return Fifty
	case Fifty:
		return Hundred
	case Hundred:
		return FiveHundred
	case FiveHundred:
		return Collapse
	default:
		return Empty
	}
}

// IsBase reports whether d is a placeable denomination
func (d Denomination) IsBase() bool {
	for _, b := range BaseDenominations {
		if d == b {
			return true
		}
	}
	return false
}

// IsEmpty reports whether d marks an empty cell
func (d Denomination) IsEmpty() bool {
	return d == Empty
}

func (d Denomination) String() string {
	if d == Empty {
		return "."
	}
	return strconv.Itoa(int(d))
}
