package model

// Canonical attribute keys produced by summarized normalization.
const (
	KeyRole       = "role"
	KeyIdentifier = "identifier"
	KeyText       = "text"
	KeyX          = "x"
	KeyY          = "y"
	KeyWidth      = "width"
	KeyHeight     = "height"
	KeyEnabled    = "enabled"
	KeyFocused    = "focused"
)

// CanonicalKeys lists the summarized vocabulary in lexicographic order.
var CanonicalKeys = []string{
	KeyEnabled, KeyFocused, KeyHeight, KeyIdentifier, KeyRole, KeyText, KeyWidth, KeyX, KeyY,
}

// IsCanonicalKey reports whether key belongs to the summarized vocabulary.
func IsCanonicalKey(key string) bool {
	switch key {
	case KeyRole, KeyIdentifier, KeyText, KeyX, KeyY, KeyWidth, KeyHeight, KeyEnabled, KeyFocused:
		return true
	}
	return false
}
