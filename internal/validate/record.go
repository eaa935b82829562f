package validate

import (
	"fmt"
	"strings"
)

// record is one decoded JSON object. It never leaves this package; callers
// only see the typed domain values built from it.
type record map[string]any

func asRecord(v any) (record, bool) {
	m, ok := v.(map[string]any)
	return record(m), ok
}

func (r record) present(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// blank reports a field as missing: absent, null or an empty string.
func (r record) blank(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return true
	}
	s, isStr := v.(string)
	return isStr && strings.TrimSpace(s) == ""
}

func (r record) str(key string) string {
	s, _ := r[key].(string)
	return s
}

func (r record) boolean(key string) bool {
	b, _ := r[key].(bool)
	return b
}

func (r record) missing(keys []string) []string {
	var out []string
	for _, k := range keys {
		if r.blank(k) {
			out = append(out, k)
		}
	}
	return out
}

func isString(v any) bool { _, ok := v.(string); return ok }
func isBool(v any) bool   { _, ok := v.(bool); return ok }

// stringList accepts a JSON array whose elements are all strings.
func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

type problems []string

func (p *problems) add(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}
