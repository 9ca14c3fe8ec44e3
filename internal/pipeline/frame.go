package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/axtree/internal/model"
	"github.com/nao1215/axtree/internal/stringify"
)

var (
	braceSegment = regexp.MustCompile(`\{([^{}]*)\}`)
	valuePrefix  = regexp.MustCompile(`(?i)^.*?\bvalue\s*=\s*`)
	numericField = regexp.MustCompile(`(?i)\b(width|height|x|y|w|h)\s*[:=]\s*(-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)`)
)

// ParseGeometry extracts named numeric fields from a boxed geometry value such
// as "{value = x:10 y:20 type = point}" or "{height: 40, width: 300}".
// The short names w and h are reported as width and height. The first
// occurrence of a field wins.
func ParseGeometry(raw string) map[string]float64 {
	segment := raw
	if m := braceSegment.FindStringSubmatch(raw); m != nil {
		segment = m[1]
	}
	segment = valuePrefix.ReplaceAllString(segment, "")

	fields := make(map[string]float64)
	for _, m := range numericField.FindAllStringSubmatch(segment, -1) {
		key := strings.ToLower(m[1])
		switch key {
		case "w":
			key = model.KeyWidth
		case "h":
			key = model.KeyHeight
		}
		if _, seen := fields[key]; seen {
			continue
		}
		f, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		fields[key] = f
	}
	return fields
}

// frameOf returns x, y, width and height, or nothing when any of them is
// missing. Values come from the position and size candidates first and fall
// back to already-canonical keys.
func frameOf(n *model.Node, positionKeys, sizeKeys []string) map[string]string {
	x, y, okPos := pair(n, positionKeys, model.KeyX, model.KeyY)
	w, h, okSize := pair(n, sizeKeys, model.KeyWidth, model.KeyHeight)
	if !okPos || !okSize {
		return nil
	}
	return map[string]string{
		model.KeyX:      stringify.FormatNumber(x),
		model.KeyY:      stringify.FormatNumber(y),
		model.KeyWidth:  stringify.FormatNumber(w),
		model.KeyHeight: stringify.FormatNumber(h),
	}
}

func pair(n *model.Node, candidates []string, first, second string) (float64, float64, bool) {
	if raw, ok := n.FirstAttribute(candidates); ok {
		fields := ParseGeometry(raw)
		a, okA := fields[first]
		b, okB := fields[second]
		if okA && okB {
			return a, b, true
		}
	}

	a, okA := number(n, first)
	b, okB := number(n, second)
	return a, b, okA && okB
}

func number(n *model.Node, key string) (float64, bool) {
	v, ok := n.Attribute(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
