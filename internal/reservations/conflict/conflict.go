// Package conflict turns the diagnostic a store emits on a
// (resource_id, timespan) exclusion violation into the two windows that collided.
package conflict

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"rsvp/pkg/model"
)

// TimestampLayout is the store's rendering of a timestamp: date, time and a
// signed two-digit hour offset without a colon ("2023-12-26 22:00:00+00").
const TimestampLayout = "2006-01-02 15:04:05-07"

// formatLayout keeps sub-second precision when present; TimestampLayout still
// parses it.
const formatLayout = "2006-01-02 15:04:05.999999-07"

const (
	keyResourceID = "resource_id"
	keyTimespan   = "timespan"
)

var clauseRegex = regexp.MustCompile(`\((?P<k1>[a-zA-Z0-9_-]+),\s*(?P<k2>[a-zA-Z0-9_-]+)\)=\((?P<v1>[a-zA-Z0-9_-]+)\s*,\s*\[(?P<v2>[^\)]+)\)`)

// Info is either Parsed or Unparsed.
type Info interface {
	isInfo()
}

// Parsed carries the structured conflict extracted from the diagnostic.
type Parsed struct {
	Conflict Conflict
}

// Unparsed carries the diagnostic verbatim when it did not match the grammar.
type Unparsed struct {
	Raw string
}

func (Parsed) isInfo()   {}
func (Unparsed) isInfo() {}

// Conflict pairs the rejected window (New) with the existing one (Old).
type Conflict struct {
	New model.ReservationWindow `json:"new"`
	Old model.ReservationWindow `json:"old"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s [%s, %s) conflicts with %s [%s, %s)",
		c.New.ResourceID, c.New.Start.Format(time.RFC3339), c.New.End.Format(time.RFC3339),
		c.Old.ResourceID, c.Old.Start.Format(time.RFC3339), c.Old.End.Format(time.RFC3339),
	)
}

// Parse never fails: anything short of two well-formed clauses yields Unparsed.
// The first clause is the rejected row, the second the pre-existing one.
func Parse(raw string) Info {
	c, ok := parseConflict(raw)
	if !ok {
		return Unparsed{Raw: raw}
	}
	return Parsed{Conflict: c}
}

func parseConflict(raw string) (Conflict, bool) {
	clauses := parseClauses(raw)
	if len(clauses) != 2 {
		return Conflict{}, false
	}

	newWindow, ok := parseWindow(clauses[0])
	if !ok {
		return Conflict{}, false
	}
	oldWindow, ok := parseWindow(clauses[1])
	if !ok {
		return Conflict{}, false
	}

	return Conflict{New: newWindow, Old: oldWindow}, true
}

func parseClauses(raw string) []map[string]string {
	var clauses []map[string]string
	for _, m := range clauseRegex.FindAllStringSubmatch(raw, -1) {
		clause := make(map[string]string, 2)
		clause[m[clauseRegex.SubexpIndex("k1")]] = m[clauseRegex.SubexpIndex("v1")]
		clause[m[clauseRegex.SubexpIndex("k2")]] = m[clauseRegex.SubexpIndex("v2")]
		clauses = append(clauses, clause)
	}
	return clauses
}

func parseWindow(clause map[string]string) (model.ReservationWindow, bool) {
	resourceID, ok := clause[keyResourceID]
	if !ok {
		return model.ReservationWindow{}, false
	}
	timespan, ok := clause[keyTimespan]
	if !ok {
		return model.ReservationWindow{}, false
	}

	startStr, endStr, found := strings.Cut(strings.ReplaceAll(timespan, `"`, ""), ",")
	if !found {
		return model.ReservationWindow{}, false
	}

	start, err := ParseTimestamp(startStr)
	if err != nil {
		return model.ReservationWindow{}, false
	}
	end, err := ParseTimestamp(endStr)
	if err != nil {
		return model.ReservationWindow{}, false
	}

	return model.ReservationWindow{ResourceID: resourceID, Start: start, End: end}, true
}

// ParseTimestamp parses TimestampLayout and normalizes the result to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatTimestamp renders t in UTC using the store's timestamp layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(formatLayout)
}

// FormatDetail renders an exclusion-violation diagnostic for the rejected
// window and the existing window it collided with.
func FormatDetail(rejected, existing model.ReservationWindow) string {
	return fmt.Sprintf(
		"Key (%s, %s)=(%s) conflicts with existing key (%s, %s)=(%s).",
		keyResourceID, keyTimespan, formatKey(rejected),
		keyResourceID, keyTimespan, formatKey(existing),
	)
}

func formatKey(w model.ReservationWindow) string {
	return fmt.Sprintf(`%s, ["%s","%s")`, w.ResourceID, FormatTimestamp(w.Start), FormatTimestamp(w.End))
}
