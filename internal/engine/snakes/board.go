package snakes

const (
	BoardSize   = 100
	StartSquare = 1
)

// Shortcuts maps a source square to where the piece ends up. No destination
// is itself a source, so a single lookup is always final.
var Shortcuts = map[int]int{
	// Ladders
	4:  14,
	9:  31,
	20: 38,
	28: 84,
	40: 59,
	51: 67,
	63: 81,
	71: 91,
	// Snakes
	17: 7,
	54: 34,
	62: 19,
	64: 60,
	87: 24,
	93: 73,
	95: 75,
	99: 78,
}

type ShortcutKind string

const (
	ShortcutNone   ShortcutKind = ""
	ShortcutLadder ShortcutKind = "ladder"
	ShortcutSnake  ShortcutKind = "snake"
)

// ShortcutAt reports the destination of square and whether it climbs or drops.
func ShortcutAt(square int) (int, ShortcutKind) {
	dest, ok := Shortcuts[square]
	if !ok {
		return square, ShortcutNone
	}
	if dest > square {
		return dest, ShortcutLadder
	}
	return dest, ShortcutSnake
}
