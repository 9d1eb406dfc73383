package sis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Date is a calendar date with no time-of-day component. It marshals as
// "2006-01-02" and compares by day.
type Date struct {
	t time.Time
}

// NewDate builds a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses "2006-01-02".
func ParseDate(value string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool         { return d.t.IsZero() }
func (d Date) Before(o Date) bool   { return d.t.Before(o.t) }
func (d Date) After(o Date) bool    { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool    { return d.t.Equal(o.t) }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

// Time anchors the date at a clock time in UTC.
func (d Date) Time(c ClockTime) time.Time {
	return time.Date(d.t.Year(), d.t.Month(), d.t.Day(), c.Hour, c.Minute, 0, 0, time.UTC)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MaxDate returns the later of two dates.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// MinDate returns the earlier of two dates.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// ClockTime is a wall-clock time of day. The zero value is invalid so a
// missing feed field degrades the pattern instead of reading as midnight.
type ClockTime struct {
	Hour   int
	Minute int
	ok     bool
}

// NewClockTime builds a valid ClockTime.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime{Hour: hour, Minute: minute, ok: true}
}

// ParseClockTime parses military "15:04" times.
func ParseClockTime(value string) (ClockTime, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse("15:04", value)
	if err != nil {
		return ClockTime{}, fmt.Errorf("parse clock time %q: %w", value, err)
	}
	return NewClockTime(t.Hour(), t.Minute()), nil
}

func (c ClockTime) Valid() bool { return c.ok }

func (c ClockTime) String() string {
	if !c.ok {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// AddMinutes shifts the clock time, clamping within the same day.
func (c ClockTime) AddMinutes(minutes int) ClockTime {
	if !c.ok {
		return c
	}
	total := c.Hour*60 + c.Minute + minutes
	if total < 0 {
		total = 0
	}
	if total > 23*60+59 {
		total = 23*60 + 59
	}
	return NewClockTime(total/60, total%60)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*c = ClockTime{}
		return nil
	}
	parsed, err := ParseClockTime(raw)
	if err != nil {
		// Malformed times leave the pattern ineligible rather than failing
		// the whole snapshot load.
		*c = ClockTime{}
		return nil
	}
	*c = parsed
	return nil
}

// WeekdaySet is the set of weekdays a pattern meets on. The feed encodes it
// as concatenated two-letter codes, e.g. "MOWEFR".
type WeekdaySet map[time.Weekday]struct{}

var weekdayCodes = []struct {
	code string
	day  time.Weekday
}{
	{"SU", time.Sunday},
	{"MO", time.Monday},
	{"TU", time.Tuesday},
	{"WE", time.Wednesday},
	{"TH", time.Thursday},
	{"FR", time.Friday},
	{"SA", time.Saturday},
}

// ParseWeekdays decodes "MOWEFR" style strings. Separators are tolerated;
// unknown codes make the whole set empty.
func ParseWeekdays(value string) WeekdaySet {
	cleaned := strings.ToUpper(strings.NewReplacer(",", "", " ", "").Replace(value))
	if len(cleaned)%2 != 0 {
		return nil
	}
	set := make(WeekdaySet)
	for i := 0; i < len(cleaned); i += 2 {
		code := cleaned[i : i+2]
		matched := false
		for _, wc := range weekdayCodes {
			if wc.code == code {
				set[wc.day] = struct{}{}
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}
	}
	return set
}

func (w WeekdaySet) Empty() bool { return len(w) == 0 }

// Contains reports membership.
func (w WeekdaySet) Contains(day time.Weekday) bool {
	_, ok := w[day]
	return ok
}

// Equal compares two sets.
func (w WeekdaySet) Equal(other WeekdaySet) bool {
	if len(w) != len(other) {
		return false
	}
	for day := range w {
		if !other.Contains(day) {
			return false
		}
	}
	return true
}

// String renders the canonical sorted "MOWEFR" encoding.
func (w WeekdaySet) String() string {
	days := make([]int, 0, len(w))
	for day := range w {
		days = append(days, int(day))
	}
	sort.Ints(days)
	var sb strings.Builder
	for _, day := range days {
		for _, wc := range weekdayCodes {
			if wc.day == time.Weekday(day) {
				sb.WriteString(wc.code)
			}
		}
	}
	return sb.String()
}

func (w WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

func (w *WeekdaySet) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = ParseWeekdays(raw)
	return nil
}
