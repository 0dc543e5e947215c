package schedule

import "time"

// Week anchors weekday-based instants to concrete dates. Appointment
// identity never depends on these dates; they exist for display and audit.
type Week struct {
	monday time.Time
}

// WeekOf returns the week containing t, starting on Monday.
func WeekOf(t time.Time) Week {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return Week{monday: day.AddDate(0, 0, -offset)}
}

func (w Week) Monday() time.Time { return w.monday }

// DateFor returns the concrete date and time of in within the week.
func (w Week) DateFor(in Instant) time.Time {
	return w.monday.AddDate(0, 0, int(in.Day)-int(Monday)).
		Add(time.Duration(in.At) * time.Minute)
}
