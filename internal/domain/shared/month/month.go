package month

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidMonth = errors.New("month: invalid month value")

// Month is a calendar year-month pair. Bookings occupy whole months, so all
// date comparisons in the booking core are month-granular and go through
// this type rather than raw time values.
type Month struct {
	Year  int
	Month time.Month
}

// Of truncates an instant to its calendar month.
func Of(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// Parse reads the YYYY-MM wire form.
func Parse(raw string) (Month, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, raw)
	}
	return Of(t), nil
}

// FirstDay is midnight UTC on the 1st, the normalized booking start date.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next is the following calendar month.
func (m Month) Next() Month {
	return Of(m.FirstDay().AddDate(0, 1, 0))
}

func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

func (m Month) Equal(other Month) bool {
	return m.Year == other.Year && m.Month == other.Month
}

// ElapsedBy reports whether the month has fully passed at the given instant,
// i.e. first day of the next month is not after it.
func (m Month) ElapsedBy(at time.Time) bool {
	return !m.Next().FirstDay().After(at.UTC())
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

func (m Month) String() string {
	return m.FirstDay().Format("2006-01")
}
