package builtin

import "time"

// ISOLayout is the timestamp layout produced by DateString.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// DateString returns the UTC ISO 8601 form of a local calendar date given
// as year, month (1-12), day, hours, minutes, seconds and milliseconds.
// Missing or zero parts take the defaults 2000, 1, 1, 0, 0, 0, 0. Years
// 1 to 99 are read as 1901 to 1999. Out-of-range parts roll over.
func DateString(parts ...int) string {
	return DateStringIn(time.Local, parts...)
}

// DateStringIn is DateString with the calendar date read in loc.
func DateStringIn(loc *time.Location, parts ...int) string {
	p := [7]int{2000, 1, 1, 0, 0, 0, 0}
	for i := 0; i < len(parts) && i < len(p); i++ {
		if parts[i] != 0 {
			p[i] = parts[i]
		}
	}

	year := p[0]
	if year >= 0 && year <= 99 {
		year += 1900
	}

	t := time.Date(year, time.Month(p[1]), p[2], p[3], p[4], p[5], p[6]*int(time.Millisecond), loc)
	return t.UTC().Format(ISOLayout)
}
