package mouse

// Host button indices.
const (
	ButtonPrimary   = 0
	ButtonMiddle    = 1
	ButtonSecondary = 2
)

// Button actions as the native side expects them.
const (
	ActionRelease = 0
	ActionPress   = 1
)

// buttonMap swaps middle and secondary; the native side numbers buttons
// left, right, middle.
var buttonMap = map[int]int{
	ButtonPrimary:   0,
	ButtonMiddle:    2,
	ButtonSecondary: 1,
	3:               3,
	4:               4,
}

// MapButton translates a host button index into the native button code.
// Indices outside the table map to themselves.
func MapButton(b int) int {
	if m, ok := buttonMap[b]; ok {
		return m
	}
	return b
}
