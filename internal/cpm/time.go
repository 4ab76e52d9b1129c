package cpm

import "time"

// HoursToDays converts effort hours into working days.
func HoursToDays(hours, workHoursPerDay float64) float64 {
	if workHoursPerDay <= 0 {
		workHoursPerDay = 8
	}
	return hours / workHoursPerDay
}

// AddWorkingDays advances a date by the given number of working days,
// skipping weekends. A fractional remainder is added as a fraction of a
// calendar day.
func AddWorkingDays(start time.Time, days float64) time.Time {
	date := start
	full := int(days)
	remaining := days - float64(full)
	for full > 0 {
		date = date.AddDate(0, 0, 1)
		if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			full--
		}
	}
	if remaining > 0 {
		date = date.Add(time.Duration(remaining * 24 * float64(time.Hour)))
	}
	return date
}
