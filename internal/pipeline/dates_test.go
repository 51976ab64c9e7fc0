package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{name: "rfc3339", input: "2024-02-13T10:30:00Z", want: time.Date(2024, 2, 13, 10, 30, 0, 0, time.UTC), ok: true},
		{name: "iso date", input: "2024-02-13", want: time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "slash mm/dd", input: "02/13/2024", want: time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "dash mm-dd", input: "02-13-2024", want: time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "single digit", input: "2/3/2024", want: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "garbage", input: "not a date", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "month overflow rejected", input: "13/14/2024", ok: false},
		{name: "day overflow rejected", input: "02/30/2024", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFlexibleDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			}
		})
	}
}

// Ambiguous slash dates keep the MM/DD convention, swapping only when
// the month slot cannot be a month.
func TestParseFlexibleDateAmbiguousSlash(t *testing.T) {
	got, ok := ParseFlexibleDate("13/02/2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC), got)
}

func TestInRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	start, end := day(10), day(20)

	assert.True(t, InRange(day(10), &start, &end), "start is inclusive")
	assert.True(t, InRange(day(20), &start, &end), "end is inclusive")
	assert.False(t, InRange(day(9), &start, &end))
	assert.False(t, InRange(day(21), &start, &end))
	assert.True(t, InRange(day(1), nil, &end), "open start")
	assert.True(t, InRange(day(31), &start, nil), "open end")
	assert.True(t, InRange(day(15), nil, nil))
}
