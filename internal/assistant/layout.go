package assistant

import (
	"time"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
)

// Row is one rendered message.
type Row struct {
	Message domain.Message
	// DateLabel is set when a date separator precedes the message.
	DateLabel string
	// GroupStart marks the first message of a same-sender run.
	GroupStart bool
	// Time is the hh:mm time of the message.
	Time string
}

// Layout decides separators and grouping for msgs as seen at now in loc.
// A separator precedes the first message of each local calendar day; a new
// group starts on a sender change or after a separator.
func Layout(msgs []domain.Message, now time.Time, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}
	rows := make([]Row, 0, len(msgs))

	var prevDay civilDate
	for i, m := range msgs {
		ts, _ := m.Time()
		day := dateOf(ts, loc)

		row := Row{Message: m, Time: FormatTime(ts, loc)}
		if i == 0 || day != prevDay {
			row.DateLabel = DateLabel(ts, now, loc)
		}
		row.GroupStart = i == 0 || row.DateLabel != "" || msgs[i-1].Sender != m.Sender

		rows = append(rows, row)
		prevDay = day
	}
	return rows
}

// DateLabel returns "Today", "Yesterday" or M/D/YYYY for ts relative to now,
// comparing calendar dates in loc.
func DateLabel(ts, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	day := dateOf(ts, loc)
	today := dateOf(now, loc)

	switch day {
	case today:
		return "Today"
	case dateOf(now.In(loc).AddDate(0, 0, -1), loc):
		return "Yesterday"
	default:
		return ts.In(loc).Format("1/2/2006")
	}
}

// FormatTime renders ts as zero-padded hh:mm in loc.
func FormatTime(ts time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return ts.In(loc).Format("15:04")
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time, loc *time.Location) civilDate {
	y, m, d := t.In(loc).Date()
	return civilDate{y, m, d}
}
