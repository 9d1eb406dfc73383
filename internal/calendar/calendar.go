package calendar

import (
	"lectern/internal/sis"
)

// Dates is the result of expanding a meeting pattern: the concrete dates a
// recording will run, and the weekday-matching dates suppressed by the
// blackout calendar. The two lists partition the weekday matches exactly.
type Dates struct {
	Recording []sis.Date
	Blackout  []sis.Date
}

// Empty reports whether the pattern yields no recordable dates at all.
func (d Dates) Empty() bool {
	return len(d.Recording) == 0
}

// Recordable expands a weekly meeting pattern into concrete dates within the
// term's recording window. A pattern missing its weekday set, clock times, or
// date bounds yields empty lists rather than an error, so one malformed feed
// record cannot halt a reconciliation pass.
//
// The effective window starts at the latest of the pattern start, the term's
// recording start, and today: recordings are never scheduled retroactively.
// It ends at the earlier of the pattern end and the recording window end.
// The function is pure; identical inputs always produce identical output.
func Recordable(pattern sis.MeetingPattern, term sis.Term, today sis.Date) Dates {
	if !pattern.HasSchedule() {
		return Dates{}
	}

	start := sis.MaxDate(pattern.StartDate, term.RecordingStart)
	start = sis.MaxDate(start, today)
	end := sis.MinDate(pattern.EndDate, term.RecordingEnd)
	if start.After(end) {
		return Dates{}
	}

	var out Dates
	for d := start; !d.After(end); d = d.AddDays(1) {
		if !pattern.Days.Contains(d.Weekday()) {
			continue
		}
		if inBlackout(d, term.Blackouts) {
			out.Blackout = append(out.Blackout, d)
		} else {
			out.Recording = append(out.Recording, d)
		}
	}
	return out
}

func inBlackout(d sis.Date, blackouts []sis.DateRange) bool {
	for _, r := range blackouts {
		if r.Contains(d) {
			return true
		}
	}
	return false
}

// Bounds returns the first and last recordable dates. ok is false when the
// schedule is empty.
func (d Dates) Bounds() (first, last sis.Date, ok bool) {
	if len(d.Recording) == 0 {
		return sis.Date{}, sis.Date{}, false
	}
	return d.Recording[0], d.Recording[len(d.Recording)-1], true
}

// AdjustTimes applies the provider's booking offsets to the nominal class
// times: recordings start a few minutes after the class starts and stop a few
// minutes before it ends. Offsets come from configuration, not the pattern.
func AdjustTimes(start, end sis.ClockTime, offsetStart, offsetEnd int) (sis.ClockTime, sis.ClockTime) {
	return start.AddMinutes(offsetStart), end.AddMinutes(offsetEnd)
}
