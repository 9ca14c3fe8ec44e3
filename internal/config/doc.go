// Package config provides the engine configuration for axtree.
// It defines the All and Summarized presets, the tagged Mode variant, and
// the optional YAML file that overrides candidate key lists and pruning knobs.
package config
