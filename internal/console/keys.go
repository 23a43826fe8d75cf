package console

// DefaultToggleKey is the key identifier that toggles the panel.
const DefaultToggleKey = "Dead"

// KeyToggle shows or hides a Panel on a single keystroke.
type KeyToggle struct {
	panel *Panel
	key   string
}

// NewKeyToggle binds key (DefaultToggleKey if empty) to p.
func NewKeyToggle(p *Panel, key string) *KeyToggle {
	if key == "" {
		key = DefaultToggleKey
	}
	return &KeyToggle{panel: p, key: key}
}

// HandleKey toggles the panel if key matches and reports whether it did.
func (k *KeyToggle) HandleKey(key string) bool {
	if key != k.key {
		return false
	}
	k.panel.Toggle()
	return true
}
