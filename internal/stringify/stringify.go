package stringify

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTextLength is the character budget for raw attribute text.
	MaxTextLength = 256

	// MaxCollectionEntries is the largest list or map that is expanded inline.
	// Larger collections collapse to a count.
	MaxCollectionEntries = 24

	// ElementMarker replaces any element handle found inside a value.
	// Nested elements are never expanded.
	ElementMarker = "<AXUIElement>"

	// maxNesting bounds recursion into nested collections.
	maxNesting = 16
)

// ElementRef is implemented by element handles of an introspection boundary.
// Values implementing it stringify to ElementMarker.
type ElementRef interface {
	ElementRef()
}

// PlainTexter is implemented by attributed or rich text values.
type PlainTexter interface {
	PlainText() string
}

// summarizedPattern matches text that already carries a truncation suffix.
var summarizedPattern = regexp.MustCompile(`(?s)^(.*)… \(\+(\d+) chars\)$`)

// String converts an arbitrary value obtained from the introspection boundary
// into its canonical string form. It never fails.
func String(v any) string {
	return stringify(v, 0)
}

func stringify(v any, depth int) string {
	if depth > maxNesting {
		return fmt.Sprintf("%T", v)
	}

	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return Summarize(x, MaxTextLength)
	case ElementRef:
		return ElementMarker
	case PlainTexter:
		return Summarize(x.PlainText(), MaxTextLength)
	case bool:
		return strconv.FormatBool(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case error:
		return Summarize(x.Error(), MaxTextLength)
	case fmt.Stringer:
		return Summarize(x.String(), MaxTextLength)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.String:
		return Summarize(rv.String(), MaxTextLength)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "[]"
		}
		return list(rv, depth)
	case reflect.Map:
		return dictionary(rv, depth)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return stringify(rv.Elem().Interface(), depth+1)
	}

	return Summarize(fmt.Sprintf("%v", v), MaxTextLength)
}

func list(rv reflect.Value, depth int) string {
	n := rv.Len()
	if n > MaxCollectionEntries {
		return "Array(count: " + strconv.Itoa(n) + ")"
	}
	parts := make([]string, n)
	for i := range n {
		parts[i] = stringify(rv.Index(i).Interface(), depth+1)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func dictionary(rv reflect.Value, depth int) string {
	n := rv.Len()
	if n > MaxCollectionEntries {
		return "Dictionary(count: " + strconv.Itoa(n) + ")"
	}
	pairs := make([]string, 0, n)
	iter := rv.MapRange()
	for iter.Next() {
		k := stringify(iter.Key().Interface(), depth+1)
		val := stringify(iter.Value().Interface(), depth+1)
		pairs = append(pairs, k+": "+val)
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ", ") + "}"
}

// Summarize bounds text to budget characters (runes). Longer text is cut to
// a whitespace-trimmed prefix of at most budget characters followed by
// "… (+R chars)", where R is the exact number of characters dropped.
// Text that merely looks summarized is cut like any other text.
func Summarize(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	total := utf8.RuneCountInString(text)
	if total <= budget {
		return text
	}

	runes := []rune(text)
	prefix := strings.TrimSpace(string(runes[:budget]))
	remaining := total - utf8.RuneCountInString(prefix)
	return prefix + "… (+" + strconv.Itoa(remaining) + " chars)"
}

// IsSummarized reports whether text has the shape Summarize produces for
// budget: a trimmed prefix of at most budget characters and a count that
// accounts for an original longer than budget.
func IsSummarized(text string, budget int) bool {
	m := summarizedPattern.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	prefix := m[1]
	if prefix == "" || prefix != strings.TrimSpace(prefix) {
		return false
	}
	n := utf8.RuneCountInString(prefix)
	if n > budget {
		return false
	}
	dropped, err := strconv.Atoi(m[2])
	if err != nil || dropped <= 0 {
		return false
	}
	return n+dropped > budget
}

// CollapseWhitespace replaces every run of whitespace with a single space and
// trims both ends.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// FormatNumber renders a geometry number: a plain integer when within 1e-4 of
// one, otherwise fixed-point with four decimals and trailing zeros stripped.
func FormatNumber(f float64) string {
	r := math.Round(f)
	if math.Abs(f-r) <= 1e-4 {
		if r == 0 {
			r = 0 // normalizes negative zero
		}
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
