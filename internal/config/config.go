package config

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "axtree"

	// DefaultTextBudget is the summarized text budget in characters. It is
	// independent of the 256-character budget of raw attribute values.
	DefaultTextBudget = 180

	// ModeAll is the preset name of the unfiltered configuration.
	ModeAll = "all"

	// ModeSummarized is the preset name of the normalizing configuration.
	ModeSummarized = "summarized"
)

// Mode selects how node attributes are shaped. It is a closed set:
// AllMode or SummarizedMode. Callers switch over the concrete type.
type Mode interface {
	// Name returns the preset name of the mode.
	Name() string

	isMode()
}

// AllMode keeps every attribute as collected.
type AllMode struct{}

// Name implements Mode.
func (AllMode) Name() string { return ModeAll }

func (AllMode) isMode() {}

// SummarizedMode reduces every node to the canonical attribute vocabulary.
type SummarizedMode struct {
	Options SummarizedOptions
}

// Name implements Mode.
func (SummarizedMode) Name() string { return ModeSummarized }

func (SummarizedMode) isMode() {}

// SummarizedOptions holds the candidate key lists and emission rules of the
// canonical attribute build. Candidate lists are ordered; the first non-empty
// match wins except for text, where all matches are joined.
type SummarizedOptions struct {
	RoleKeys       []string `yaml:"roleKeys,omitempty"`
	TextKeys       []string `yaml:"textKeys,omitempty"`
	IdentifierKeys []string `yaml:"identifierKeys,omitempty"`
	PositionKeys   []string `yaml:"positionKeys,omitempty"`
	SizeKeys       []string `yaml:"sizeKeys,omitempty"`
	EnabledKeys    []string `yaml:"enabledKeys,omitempty"`
	FocusedKeys    []string `yaml:"focusedKeys,omitempty"`

	// IncludeFrame emits x, y, width and height.
	IncludeFrame bool `yaml:"includeFrame"`

	// DropGroupRole omits role when it is one of GroupRoles.
	DropGroupRole bool     `yaml:"dropGroupRole"`
	GroupRoles    []string `yaml:"groupRoles,omitempty"`

	// EmitEnabledOnlyWhenFalse emits enabled only for disabled elements.
	EmitEnabledOnlyWhenFalse bool `yaml:"emitEnabledOnlyWhenFalse"`

	// EmitFocusedOnlyWhenTrue emits focused only for focused elements.
	EmitFocusedOnlyWhenTrue bool `yaml:"emitFocusedOnlyWhenTrue"`

	// TextBudget is the summarization budget of the text field.
	TextBudget int `yaml:"textBudget,omitempty"`
}

// Config is the engine configuration. Treat it as a value: presets return
// fresh copies and nothing in the engine mutates a Config it was given.
type Config struct {
	Mode Mode

	// TextNodesOnly keeps only text-bearing nodes and their ancestors.
	TextNodesOnly bool

	// PruneEmptyLeaves drops nodes without attributes and children.
	PruneEmptyLeaves bool

	// StripStructural clears the attributes of nodes with neither role nor text.
	StripStructural bool

	// IncludeHidden keeps elements marked hidden.
	IncludeHidden bool

	// PrunedRoles are roles the collector does not descend into.
	PrunedRoles []string

	// HiddenKeys, RoleKeys and SubroleKeys are always fetched because
	// hidden filtering and role pruning depend on them.
	HiddenKeys  []string
	RoleKeys    []string
	SubroleKeys []string

	// MaxDepth stops descent below the given depth. Zero means unlimited.
	MaxDepth int
}

// All returns the unfiltered preset.
func All() Config {
	return Config{
		Mode:          AllMode{},
		IncludeHidden: true,
		HiddenKeys:    []string{"AXHidden", "hidden"},
		RoleKeys:      []string{"AXRole", "role"},
		SubroleKeys:   []string{"AXSubrole", "subrole"},
	}
}

// Summarized returns the normalizing preset.
func Summarized() Config {
	return Config{
		Mode: SummarizedMode{Options: SummarizedOptions{
			RoleKeys:                 []string{"AXRole", "role"},
			TextKeys:                 []string{"AXTitle", "AXValue", "AXDescription", "AXPlaceholderValue", "text"},
			IdentifierKeys:           []string{"AXIdentifier", "AXDOMIdentifier", "identifier"},
			PositionKeys:             []string{"AXPosition", "position"},
			SizeKeys:                 []string{"AXSize", "size"},
			EnabledKeys:              []string{"AXEnabled", "enabled"},
			FocusedKeys:              []string{"AXFocused", "focused"},
			IncludeFrame:             true,
			DropGroupRole:            true,
			GroupRoles:               []string{"group", "AXGroup"},
			EmitEnabledOnlyWhenFalse: true,
			EmitFocusedOnlyWhenTrue:  true,
			TextBudget:               DefaultTextBudget,
		}},
		PruneEmptyLeaves: true,
		StripStructural:  true,
		PrunedRoles:      []string{"AXMenuBar"},
		HiddenKeys:       []string{"AXHidden", "hidden"},
		RoleKeys:         []string{"AXRole", "role"},
		SubroleKeys:      []string{"AXSubrole", "subrole"},
	}
}

// Preset returns the named preset.
func Preset(name string) (Config, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ModeAll:
		return All(), nil
	case ModeSummarized, "":
		return Summarized(), nil
	}
	return Config{}, ErrUnknownMode
}

// Options returns the summarized options and whether the mode is
// SummarizedMode.
func (c Config) Options() (SummarizedOptions, bool) {
	m, ok := c.Mode.(SummarizedMode)
	return m.Options, ok
}

// FetchKeys returns the attribute names the collector needs under this
// configuration, or nil when every attribute is needed.
func (c Config) FetchKeys() []string {
	opts, ok := c.Options()
	if !ok {
		return nil
	}
	groups := [][]string{
		opts.RoleKeys, opts.TextKeys, opts.IdentifierKeys, opts.PositionKeys,
		opts.SizeKeys, opts.EnabledKeys, opts.FocusedKeys,
		c.HiddenKeys, c.RoleKeys, c.SubroleKeys,
	}
	var keys []string
	for _, g := range groups {
		for _, k := range g {
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// IsPrunedRole reports whether role is configured as not traversable.
func (c Config) IsPrunedRole(role string) bool {
	return containsFold(c.PrunedRoles, role)
}

// IsGroupRole reports whether role counts as a group role.
func (o SummarizedOptions) IsGroupRole(role string) bool {
	return containsFold(o.GroupRoles, role)
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	out := c
	out.PrunedRoles = slices.Clone(c.PrunedRoles)
	out.HiddenKeys = slices.Clone(c.HiddenKeys)
	out.RoleKeys = slices.Clone(c.RoleKeys)
	out.SubroleKeys = slices.Clone(c.SubroleKeys)
	if opts, ok := c.Options(); ok {
		opts.RoleKeys = slices.Clone(opts.RoleKeys)
		opts.TextKeys = slices.Clone(opts.TextKeys)
		opts.IdentifierKeys = slices.Clone(opts.IdentifierKeys)
		opts.PositionKeys = slices.Clone(opts.PositionKeys)
		opts.SizeKeys = slices.Clone(opts.SizeKeys)
		opts.EnabledKeys = slices.Clone(opts.EnabledKeys)
		opts.FocusedKeys = slices.Clone(opts.FocusedKeys)
		opts.GroupRoles = slices.Clone(opts.GroupRoles)
		out.Mode = SummarizedMode{Options: opts}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	switch m := c.Mode.(type) {
	case AllMode:
	case SummarizedMode:
		if m.Options.TextBudget <= 0 {
			return ErrInvalidTextBudget
		}
	default:
		return ErrUnknownMode
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	return nil
}

// XDGDataDir returns the XDG data directory for axtree.
// On Linux: ~/.local/share/axtree
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for axtree.
// On Linux: ~/.config/axtree
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// RoleBearingKeys returns the keys that name a node's role in either mode.
func (c Config) RoleBearingKeys() []string {
	return withLeading("role", c.RoleKeys)
}

// TextBearingKeys returns the keys that carry a node's text in either mode.
// Under AllMode the text candidates of the summarized preset are used.
func (c Config) TextBearingKeys() []string {
	opts, ok := c.Options()
	if !ok {
		opts, _ = Summarized().Options()
	}
	return withLeading("text", opts.TextKeys)
}

func withLeading(first string, rest []string) []string {
	out := []string{first}
	for _, k := range rest {
		if !strings.EqualFold(k, first) {
			out = append(out, k)
		}
	}
	return out
}
