// Package validate turns raw section payloads into typed domain records.
// Validators never fail: they return the records or the full list of
// human-readable problems, and never touch the store.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tazhibayda/profile-service/internal/codec"
)

var (
	emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	gradeRe = regexp.MustCompile(`^[A-Fa-f0-9.]+$`)
	linkRe  = regexp.MustCompile(`^https?://\S+$`)
	urlRe   = regexp.MustCompile(`^(https?://)?([\w\d-]+\.)+[\w]{2,}(/[\w\d\-./?%&=]*)?$`)
)

type Validator struct {
	now func() time.Time
}

// New returns a Validator reading the current date from now (time.Now when nil).
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

func (v *Validator) today() time.Time { return codec.Day(v.now()) }

// parsed holds the dates of a record that were present and well formed.
type parsed map[string]time.Time

func (d parsed) ptr(key string) *time.Time {
	t, ok := d[key]
	if !ok {
		return nil
	}
	return &t
}

// listRule drives validateList for one section.
type listRule[T any] struct {
	shapeErr string
	label    string
	ident    string
	required []string
	texts    []string
	bools    []string
	dates    []string
	check    func(r record, d parsed, p *problems)
	build    func(r record, d parsed) T
}

func (rule listRule[T]) name(i int, r record) string {
	id := strings.TrimSpace(r.str(rule.ident))
	if id == "" {
		return fmt.Sprintf("%s #%d", rule.label, i+1)
	}
	return fmt.Sprintf("%s #%d (%s)", rule.label, i+1, id)
}

// validateList is the one procedure every list section goes through. Shape
// problems short-circuit with a single message; otherwise each record gets one
// line carrying all of its problems.
func validateList[T any](raw any, rule listRule[T]) ([]T, []string) {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, []string{rule.shapeErr}
	}
	recs := make([]record, 0, len(items))
	for _, it := range items {
		r, ok := asRecord(it)
		if !ok {
			return nil, []string{rule.shapeErr}
		}
		recs = append(recs, r)
	}

	var errs []string
	out := make([]T, 0, len(recs))
	for i, r := range recs {
		var p problems
		if miss := r.missing(rule.required); len(miss) > 0 {
			p.add("Missing required fields: %s", strings.Join(miss, ", "))
		}
		for _, f := range rule.texts {
			if r.present(f) && !isString(r[f]) {
				p.add("%s must be a string.", f)
			}
		}
		for _, f := range rule.bools {
			if r.present(f) && !isBool(r[f]) {
				p.add("%s must be a boolean value.", f)
			}
		}
		d := parsed{}
		for _, f := range rule.dates {
			if r.blank(f) {
				continue
			}
			t, err := codec.ParseDate(r.str(f))
			if err != nil {
				p.add("Invalid date format for %s. Use YYYY-MM-DD.", f)
				continue
			}
			d[f] = t
		}
		if rule.check != nil {
			rule.check(r, d, &p)
		}
		if len(p) > 0 {
			errs = append(errs, rule.name(i, r)+": "+strings.Join(p, ", "))
			continue
		}
		out = append(out, rule.build(r, d))
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// endAfterStart reports a problem only when both dates parsed.
func endAfterStart(d parsed, start, end string) bool {
	s, okS := d[start]
	e, okE := d[end]
	return !okS || !okE || codec.CompareDates(e, s) == codec.After
}

func hasHTTPScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
