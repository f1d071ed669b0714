package month

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	m, err := Parse("2026-03")
	require.NoError(t, err)
	assert.Equal(t, 2026, m.Year)
	assert.Equal(t, time.March, m.Month)

	for _, raw := range []string{"", "2026", "2026-13", "03-2026", "2026-3", "march"} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidMonth, "raw %q", raw)
	}
}

func TestOfTruncatesToCalendarMonth(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 2026-02-01 02:00 IST is still 2026-01-31 in UTC.
	at := time.Date(2026, time.February, 1, 2, 0, 0, 0, ist)
	assert.Equal(t, Month{Year: 2026, Month: time.January}, Of(at))
}

func TestNextRollsOverYear(t *testing.T) {
	assert.Equal(t, Month{Year: 2027, Month: time.January}, Month{Year: 2026, Month: time.December}.Next())
	assert.Equal(t, Month{Year: 2026, Month: time.March}, Month{Year: 2026, Month: time.February}.Next())
}

func TestFirstDay(t *testing.T) {
	got := Month{Year: 2026, Month: time.September}.FirstDay()
	assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestBeforeAndEqual(t *testing.T) {
	jan := Month{Year: 2026, Month: time.January}
	feb := Month{Year: 2026, Month: time.February}
	decPrev := Month{Year: 2025, Month: time.December}

	assert.True(t, jan.Before(feb))
	assert.False(t, feb.Before(jan))
	assert.True(t, decPrev.Before(jan))
	assert.True(t, jan.Equal(Month{Year: 2026, Month: time.January}))
	assert.False(t, jan.Equal(feb))
}

func TestElapsedByBoundary(t *testing.T) {
	jan := Month{Year: 2026, Month: time.January}

	// The last instant of January does not elapse the month.
	assert.False(t, jan.ElapsedBy(time.Date(2026, time.January, 31, 23, 59, 59, 0, time.UTC)))
	// Midnight on February 1st does, exactly.
	assert.True(t, jan.ElapsedBy(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, jan.ElapsedBy(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)))
}

func TestStringIsSortableWireForm(t *testing.T) {
	assert.Equal(t, "2026-03", Month{Year: 2026, Month: time.March}.String())
	// Zero padding keeps lexicographic order aligned with chronological order.
	assert.Less(t, Month{Year: 2026, Month: time.September}.String(), Month{Year: 2026, Month: time.October}.String())
}
