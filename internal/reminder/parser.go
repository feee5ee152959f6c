// Package reminder holds the reminder lifecycle logic that does not depend on
// storage or Telegram: parsing chat text into a due minute and body, error
// classification, and dispatching reminder bodies through a Sender.
package reminder

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateTimeLayout is the user-facing "dd.mm.yyyy HH:MM" layout.
const DateTimeLayout = "02.01.2006 15:04"

// messagePattern requires a 16 character date-time token, whitespace and a
// non-blank body, anchored on both ends.
var messagePattern = regexp.MustCompile(`(?s)^([0-9.:\s]{16})\s+(\S.*)$`)

// Parsed is a validated reminder request ready to be stored.
type Parsed struct {
	DueAt time.Time
	Body  string
}

// Parse validates text of the form "dd.mm.yyyy HH:MM body". The date-time is
// interpreted in loc (time.Local when nil) and truncated to the minute; no
// past-due check is made.
//
// It returns ErrMalformedInput when the text has the wrong shape and
// ErrInvalidDatetime when the shape is right but the date-time does not exist.
func Parse(text string, loc *time.Location) (Parsed, error) {
	if loc == nil {
		loc = time.Local
	}

	m := messagePattern.FindStringSubmatch(text)
	if m == nil {
		return Parsed{}, ErrMalformedInput
	}

	dueAt, err := time.ParseInLocation(DateTimeLayout, m[1], loc)
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: %q: %v", ErrInvalidDatetime, m[1], err)
	}

	return Parsed{
		DueAt: dueAt.Truncate(time.Minute),
		Body:  strings.TrimSpace(m[2]),
	}, nil
}
