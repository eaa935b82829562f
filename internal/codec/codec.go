// Package codec converts opaque profile handles and calendar dates between
// their wire strings and the values the store works with.
package codec

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the only accepted wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	ErrInvalidHandle = errors.New("invalid handle")
	ErrInvalidDate   = errors.New("invalid date")
)

// Error carries the offending input next to one of the sentinels above.
type Error struct {
	Kind  error
	Input string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %q", e.Kind, e.Input) }
func (e *Error) Unwrap() error { return e.Kind }

var (
	handleRe = regexp.MustCompile(`^[0-9a-f]{24}$`)
	dateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ParseHandle accepts only the canonical form produced by RenderHandle.
func ParseHandle(raw string) (primitive.ObjectID, error) {
	if !handleRe.MatchString(raw) {
		return primitive.NilObjectID, &Error{Kind: ErrInvalidHandle, Input: raw}
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, &Error{Kind: ErrInvalidHandle, Input: raw}
	}
	return id, nil
}

func RenderHandle(id primitive.ObjectID) string { return id.Hex() }

// ParseDate returns the UTC midnight of a YYYY-MM-DD date. Out of range
// values such as 2023-02-30 are rejected rather than normalized.
func ParseDate(raw string) (time.Time, error) {
	if !dateRe.MatchString(raw) {
		return time.Time{}, &Error{Kind: ErrInvalidDate, Input: raw}
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil || t.Format(DateLayout) != raw {
		return time.Time{}, &Error{Kind: ErrInvalidDate, Input: raw}
	}
	return t, nil
}

func RenderDate(t time.Time) string { return t.UTC().Format(DateLayout) }

// Order is the result of CompareDates.
type Order int

const (
	Before Order = iota - 1
	Equal
	After
)

func (o Order) String() string {
	switch o {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "equal"
	}
}

// CompareDates orders a relative to b at day granularity.
func CompareDates(a, b time.Time) Order {
	da, db := Day(a), Day(b)
	switch {
	case da.Before(db):
		return Before
	case da.After(db):
		return After
	default:
		return Equal
	}
}

// Day truncates t to the UTC midnight of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
