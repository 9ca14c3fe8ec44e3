package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".axtree"

// XDGConfigFile is the file name looked up inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// File represents the structure of the .axtree configuration file.
// Unset fields leave the preset untouched.
type File struct {
	// Mode selects the preset the remaining fields override.
	Mode string `yaml:"mode,omitempty"`

	// Format is the default output format of the snapshot command.
	Format string `yaml:"format,omitempty"`

	// Timeout bounds a whole capture, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// BatchSize is the number of processes captured concurrently.
	BatchSize int `yaml:"batchSize,omitempty"`

	// DBDir is the snapshot history directory.
	DBDir string `yaml:"dbDir,omitempty"`

	TextNodesOnly    *bool    `yaml:"textNodesOnly,omitempty"`
	PruneEmptyLeaves *bool    `yaml:"pruneEmptyLeaves,omitempty"`
	StripStructural  *bool    `yaml:"stripStructural,omitempty"`
	IncludeHidden    *bool    `yaml:"includeHidden,omitempty"`
	MaxDepth         *int     `yaml:"maxDepth,omitempty"`
	PrunedRoles      []string `yaml:"prunedRoles,omitempty"`
	HiddenKeys       []string `yaml:"hiddenKeys,omitempty"`

	// Summarized overrides the options of the summarized mode.
	Summarized *SummarizedOverrides `yaml:"summarized,omitempty"`
}

// SummarizedOverrides holds optional overrides of SummarizedOptions.
type SummarizedOverrides struct {
	RoleKeys                 []string `yaml:"roleKeys,omitempty"`
	TextKeys                 []string `yaml:"textKeys,omitempty"`
	IdentifierKeys           []string `yaml:"identifierKeys,omitempty"`
	PositionKeys             []string `yaml:"positionKeys,omitempty"`
	SizeKeys                 []string `yaml:"sizeKeys,omitempty"`
	EnabledKeys              []string `yaml:"enabledKeys,omitempty"`
	FocusedKeys              []string `yaml:"focusedKeys,omitempty"`
	GroupRoles               []string `yaml:"groupRoles,omitempty"`
	IncludeFrame             *bool    `yaml:"includeFrame,omitempty"`
	DropGroupRole            *bool    `yaml:"dropGroupRole,omitempty"`
	EmitEnabledOnlyWhenFalse *bool    `yaml:"emitEnabledOnlyWhenFalse,omitempty"`
	EmitFocusedOnlyWhenTrue  *bool    `yaml:"emitFocusedOnlyWhenTrue,omitempty"`
	TextBudget               *int     `yaml:"textBudget,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Resolve builds the engine configuration described by the file: the named
// preset (or fallback when Mode is empty) with the file's overrides applied.
func (cf *File) Resolve(fallback string) (Config, error) {
	name := fallback
	if cf != nil && cf.Mode != "" {
		name = cf.Mode
	}
	cfg, err := Preset(name)
	if err != nil {
		return Config{}, err
	}
	if cf == nil {
		return cfg, nil
	}

	setBool(&cfg.TextNodesOnly, cf.TextNodesOnly)
	setBool(&cfg.PruneEmptyLeaves, cf.PruneEmptyLeaves)
	setBool(&cfg.StripStructural, cf.StripStructural)
	setBool(&cfg.IncludeHidden, cf.IncludeHidden)
	if cf.MaxDepth != nil {
		cfg.MaxDepth = *cf.MaxDepth
	}
	setList(&cfg.PrunedRoles, cf.PrunedRoles)
	setList(&cfg.HiddenKeys, cf.HiddenKeys)

	if opts, ok := cfg.Options(); ok && cf.Summarized != nil {
		o := cf.Summarized
		setList(&opts.RoleKeys, o.RoleKeys)
		setList(&opts.TextKeys, o.TextKeys)
		setList(&opts.IdentifierKeys, o.IdentifierKeys)
		setList(&opts.PositionKeys, o.PositionKeys)
		setList(&opts.SizeKeys, o.SizeKeys)
		setList(&opts.EnabledKeys, o.EnabledKeys)
		setList(&opts.FocusedKeys, o.FocusedKeys)
		setList(&opts.GroupRoles, o.GroupRoles)
		setBool(&opts.IncludeFrame, o.IncludeFrame)
		setBool(&opts.DropGroupRole, o.DropGroupRole)
		setBool(&opts.EmitEnabledOnlyWhenFalse, o.EmitEnabledOnlyWhenFalse)
		setBool(&opts.EmitFocusedOnlyWhenTrue, o.EmitFocusedOnlyWhenTrue)
		if o.TextBudget != nil {
			opts.TextBudget = *o.TextBudget
		}
		cfg.Mode = SummarizedMode{Options: opts}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .axtree in the current directory
// 3. Look for .axtree in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setList(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = append([]string(nil), src...)
	}
}
