package models

import "time"

const (
	DefaultScheduleDelayDays = 2
	DefaultScheduleHour      = 10
	DefaultScheduledTime     = "10:00 AM"
)

// ApplyDefaultSchedule assigns the default slot to a consultation that has no
// scheduled date yet: two calendar days after now at 10:00 in loc. It returns
// the consultation unchanged when a date is already present.
func ApplyDefaultSchedule(c Consultation, now time.Time, loc *time.Location) Consultation {
	if c.ScheduledDate != nil {
		return c
	}
	if loc == nil {
		loc = time.Local
	}
	day := now.In(loc).AddDate(0, 0, DefaultScheduleDelayDays)
	date := time.Date(day.Year(), day.Month(), day.Day(), DefaultScheduleHour, 0, 0, 0, loc)
	slot := DefaultScheduledTime

	c.ScheduledDate = &date
	c.ScheduledTime = &slot
	c.Status = StatusScheduled
	return c
}
