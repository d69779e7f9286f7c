package constraint

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nicia-ai/typegraph/kind"
)

// nullMarker separates field components in a computed unique key. It is
// chosen to be vanishingly unlikely to appear in a stringified property
// value; if it ever does, the two rows are still only spuriously equal, not
// corrupted, since the marker is reserved rather than escaped.
const nullMarker = "\x00"

var fold = cases.Fold()

// ComputeUniqueKey concatenates the stringified values of fields, in
// declaration order, with nullMarker as separator (spec §4.2
// computeUniqueKey). A missing field contributes the literal string "\x01"
// (the reserved absent-marker) so that an explicit null and an absent
// property never collide.
//
// Non-primitive values (maps, slices) are canonically JSON-encoded via
// encoding/json, whose object key ordering is deterministic for
// map[string]any only insofar as Go's json package sorts map keys
// alphabetically during Marshal.
func ComputeUniqueKey(props map[string]any, fields []string, collation kind.Collation) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = stringifyField(props, f, collation)
	}
	return strings.Join(parts, nullMarker)
}

const absentMarker = "\x01"

func stringifyField(props map[string]any, field string, collation kind.Collation) string {
	v, ok := lookup(props, field)
	if !ok {
		return absentMarker
	}
	if v == nil {
		return "\x02" // reserved null-marker, distinct from absent
	}
	s := stringifyValue(v)
	if collation == kind.CollationCaseInsensitive {
		s = fold.String(s)
	}
	return s
}

func stringifyValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case bool, int, int64, float64, float32:
		return fmt.Sprintf("%v", x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(b)
	}
}

func lookup(props map[string]any, path string) (any, bool) {
	cur := any(props)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// CheckWherePredicate evaluates a UniqueConstraint's optional partial-index
// predicate against props, reporting whether the row participates in the
// constraint at all (spec §4.2 checkWherePredicate). A constraint with no
// Where predicate always participates.
func CheckWherePredicate(c kind.UniqueConstraint, props map[string]any) bool {
	if c.Where == nil {
		return true
	}
	return c.Where.Evaluate(props)
}
