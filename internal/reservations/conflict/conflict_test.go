package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsvp/pkg/model"
)

const errMsg = `Key (resource_id, timespan)=(ocean-view-room-713, ["2023-12-26 22:00:00+00","2023-12-30 19:00:00+00")) conflicts with existing key (resource_id, timespan)=(ocean-view-room-713, ["2023-12-25 22:00:00+00","2023-12-28 19:00:00+00")).`

func utc(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts.UTC()
}

func TestParseClauses(t *testing.T) {
	clauses := parseClauses(errMsg)
	require.Len(t, clauses, 2)

	assert.Equal(t, "ocean-view-room-713", clauses[0]["resource_id"])
	assert.Equal(t, `"2023-12-26 22:00:00+00","2023-12-30 19:00:00+00"`, clauses[0]["timespan"])
	assert.Equal(t, "ocean-view-room-713", clauses[1]["resource_id"])
	assert.Equal(t, `"2023-12-25 22:00:00+00","2023-12-28 19:00:00+00"`, clauses[1]["timespan"])
}

func TestParseWindow(t *testing.T) {
	window, ok := parseWindow(map[string]string{
		"resource_id": "ocean-view-room-713",
		"timespan":    `"2023-12-26 22:00:00+00","2023-12-30 19:00:00+00"`,
	})
	require.True(t, ok)
	assert.Equal(t, "ocean-view-room-713", window.ResourceID)
	assert.Equal(t, utc(t, "2023-12-26T22:00:00Z"), window.Start)
	assert.Equal(t, utc(t, "2023-12-30T19:00:00Z"), window.End)
}

func TestParse(t *testing.T) {
	info := Parse(errMsg)

	parsed, ok := info.(Parsed)
	require.True(t, ok, "expected Parsed, got %T", info)
	assert.Equal(t, Conflict{
		New: model.ReservationWindow{
			ResourceID: "ocean-view-room-713",
			Start:      utc(t, "2023-12-26T22:00:00Z"),
			End:        utc(t, "2023-12-30T19:00:00Z"),
		},
		Old: model.ReservationWindow{
			ResourceID: "ocean-view-room-713",
			Start:      utc(t, "2023-12-25T22:00:00Z"),
			End:        utc(t, "2023-12-28T19:00:00Z"),
		},
	}, parsed.Conflict)
}

func TestParse_OffsetIsNormalizedToUTC(t *testing.T) {
	raw := `Key (resource_id, timespan)=(room-1, ["2023-12-26 15:00:00-07","2023-12-30 12:00:00-07")) conflicts with existing key (resource_id, timespan)=(room-1, ["2023-12-25 15:00:00-07","2023-12-28 12:00:00-07")).`

	parsed, ok := Parse(raw).(Parsed)
	require.True(t, ok)
	assert.Equal(t, utc(t, "2023-12-26T22:00:00Z"), parsed.Conflict.New.Start)
	assert.Equal(t, time.UTC, parsed.Conflict.New.Start.Location())
	assert.Equal(t, utc(t, "2023-12-28T19:00:00Z"), parsed.Conflict.Old.End)
}

func TestParse_Unparsed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "free text", raw: "conflicting key value violates exclusion constraint"},
		{
			name: "single clause",
			raw:  `Key (resource_id, timespan)=(room-1, ["2023-12-26 22:00:00+00","2023-12-30 19:00:00+00")).`,
		},
		{
			name: "bad timestamp",
			raw:  `Key (resource_id, timespan)=(room-1, ["2023-12-26T22:00:00Z","2023-12-30 19:00:00+00")) conflicts with existing key (resource_id, timespan)=(room-1, ["2023-12-25 22:00:00+00","2023-12-28 19:00:00+00")).`,
		},
		{
			name: "missing end",
			raw:  `Key (resource_id, timespan)=(room-1, ["2023-12-26 22:00:00+00")) conflicts with existing key (resource_id, timespan)=(room-1, ["2023-12-25 22:00:00+00","2023-12-28 19:00:00+00")).`,
		},
		{
			name: "unexpected keys",
			raw:  `Key (resource, span)=(room-1, ["2023-12-26 22:00:00+00","2023-12-30 19:00:00+00")) conflicts with existing key (resource, span)=(room-1, ["2023-12-25 22:00:00+00","2023-12-28 19:00:00+00")).`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Parse(tt.raw)
			assert.Equal(t, Unparsed{Raw: tt.raw}, info)
		})
	}
}

func TestFormatDetail_RoundTrip(t *testing.T) {
	rejected := model.ReservationWindow{
		ResourceID: "ixia-3230",
		Start:      utc(t, "2022-12-26T22:00:00Z"),
		End:        utc(t, "2022-12-30T19:00:00Z"),
	}
	existing := model.ReservationWindow{
		ResourceID: "ixia-3230",
		Start:      utc(t, "2022-12-25T22:00:00Z"),
		End:        utc(t, "2022-12-28T19:00:00.250Z"),
	}

	parsed, ok := Parse(FormatDetail(rejected, existing)).(Parsed)
	require.True(t, ok)
	assert.Equal(t, rejected, parsed.Conflict.New)
	assert.Equal(t, existing, parsed.Conflict.Old)
}

func TestFormatDetail_MicrosecondsRoundTrip(t *testing.T) {
	w := model.ReservationWindow{
		ResourceID: "room-1",
		Start:      time.Date(2023, 12, 26, 22, 0, 0, 123456000, time.UTC),
		End:        time.Date(2300, 1, 1, 0, 0, 0, 999999000, time.UTC),
	}

	parsed, ok := Parse(FormatDetail(w, w)).(Parsed)
	require.True(t, ok)
	assert.Equal(t, w, parsed.Conflict.Old)
}

func TestFormatDetail_ResourceOutsideClauseAlphabetIsUnparsed(t *testing.T) {
	for _, resource := range []string{"room.1", "room 1", "salle-é", "a/b"} {
		t.Run(resource, func(t *testing.T) {
			w := model.ReservationWindow{
				ResourceID: resource,
				Start:      utc(t, "2023-12-26T22:00:00Z"),
				End:        utc(t, "2023-12-27T22:00:00Z"),
			}
			detail := FormatDetail(w, w)
			assert.Equal(t, Unparsed{Raw: detail}, Parse(detail))
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("MST", -7*60*60)
	ts := time.Date(2023, 12, 26, 15, 0, 0, 0, loc)

	assert.Equal(t, "2023-12-26 22:00:00+00", FormatTimestamp(ts))

	back, err := ParseTimestamp(FormatTimestamp(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))
}
