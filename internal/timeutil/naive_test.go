package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNaive_AcceptedLayouts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"full seconds", "2026-01-05T09:30:15", time.Date(2026, 1, 5, 9, 30, 15, 0, time.UTC)},
		{"minute precision", "2026-01-05T09:30", time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)},
		{"space separator", "2026-01-05 09:30:15", time.Date(2026, 1, 5, 9, 30, 15, 0, time.UTC)},
		{"fractional seconds", "2026-01-05T09:30:15.123", time.Date(2026, 1, 5, 9, 30, 15, 123000000, time.UTC)},
		{"surrounding whitespace", "  2026-01-05T09:30:15  ", time.Date(2026, 1, 5, 9, 30, 15, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNaive(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

// A trailing 'Z' marks a value that is already local; it is stripped without
// any conversion.
func TestParseNaive_StripsTrailingZ(t *testing.T) {
	got, err := ParseNaive("2026-01-05T09:30:15Z")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour(), "Z must be dropped, not applied as an offset")
	assert.Equal(t, 30, got.Minute())
}

func TestParseNaive_RejectsNumericOffsets(t *testing.T) {
	for _, input := range []string{
		"2026-01-05T09:30:15+02:00",
		"2026-01-05T09:30:15-05:00",
		"2026-01-05 09:30:15+0200",
	} {
		_, err := ParseNaive(input)
		assert.Error(t, err, "offset timestamp %q must be rejected", input)
	}
}

func TestParseNaive_RejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "not-a-time", "2026-01-05", "09:30:15"} {
		_, err := ParseNaive(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("05.01.2026")
	assert.Error(t, err)
}

func TestFormatRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 5, 9, 30, 15, 0, time.UTC)
	parsed, err := ParseNaive(FormatNaive(ts))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))

	day, err := ParseDate(FormatDate(ts))
	require.NoError(t, err)
	assert.Equal(t, DateOf(ts), day)
}

func TestEnsureNaive_DropsZone(t *testing.T) {
	zone := time.FixedZone("CET", 3600)
	zoned := time.Date(2026, 1, 5, 9, 30, 0, 0, zone)

	naive := EnsureNaive(zoned)
	assert.Equal(t, time.UTC, naive.Location())
	assert.Equal(t, 9, naive.Hour(), "wall-clock fields must be kept, not converted")

	// Already-naive values pass through unchanged.
	assert.True(t, EnsureNaive(naive).Equal(naive))
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2026, 1, 5, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), DateOf(ts))
}
