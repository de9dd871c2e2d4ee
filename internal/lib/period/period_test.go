package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfWeek_StartsOnSunday(t *testing.T) {
	loc := time.UTC
	sunday := time.Date(2024, 6, 9, 0, 0, 0, 0, loc)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{name: "sunday itself", in: time.Date(2024, 6, 9, 18, 30, 0, 0, loc), want: sunday},
		{name: "wednesday", in: time.Date(2024, 6, 12, 9, 0, 0, 0, loc), want: sunday},
		{name: "saturday", in: time.Date(2024, 6, 15, 23, 59, 0, 0, loc), want: sunday},
		{name: "across month", in: time.Date(2024, 7, 2, 10, 0, 0, 0, loc), want: time.Date(2024, 6, 30, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StartOfWeek(tt.in))
		})
	}
}

func TestWorkWeek(t *testing.T) {
	loc := time.UTC
	monday := time.Date(2024, 6, 10, 0, 0, 0, 0, loc)
	friday := time.Date(2024, 6, 14, 23, 59, 59, 999999000, loc)

	tests := []struct {
		name     string
		in       time.Time
		wantFrom time.Time
		wantTo   time.Time
	}{
		{name: "monday", in: time.Date(2024, 6, 10, 12, 0, 0, 0, loc), wantFrom: monday, wantTo: friday},
		{name: "friday", in: time.Date(2024, 6, 14, 8, 0, 0, 0, loc), wantFrom: monday, wantTo: friday},
		{name: "saturday", in: time.Date(2024, 6, 15, 8, 0, 0, 0, loc), wantFrom: monday, wantTo: friday},
		{name: "sunday goes back six days", in: time.Date(2024, 6, 16, 8, 0, 0, 0, loc), wantFrom: monday, wantTo: friday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := WorkWeek(tt.in)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestDayAndMonthBounds(t *testing.T) {
	in := time.Date(2024, 2, 29, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), StartOfDay(in))
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999999000, time.UTC), EndOfDay(in))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(in))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{name: "date only", in: "2024-06-12", want: time.Date(2024, 6, 12, 0, 0, 0, 0, time.Local)},
		{name: "rfc3339", in: "2024-06-12T10:00:00Z", want: time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)},
		{name: "datetime-local", in: "2024-06-12T10:30", want: time.Date(2024, 6, 12, 10, 30, 0, 0, time.Local)},
		{name: "padded", in: " 2024-06-12 ", want: time.Date(2024, 6, 12, 0, 0, 0, 0, time.Local)},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "yesterday", wantErr: true},
		{name: "impossible day", in: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseDateIn(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	got, err := ParseDateIn("2024-06-12T02:00:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, loc), StartOfDay(got))

	got, err = ParseDateIn("2024-06-12", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, loc), got)

	_, err = ParseDateIn("2024-13-01", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)
}
