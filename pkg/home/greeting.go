package home

import "time"

// Weather is the static weather badge.
const Weather = "72°F Sunny"

// Greeting returns the salutation for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good Morning, Sir."
	case h < 18:
		return "Good Afternoon, Sir."
	default:
		return "Good Evening, Sir."
	}
}

// Header is the top bar: date, clock and weather.
type Header struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Weather string `json:"weather"`
}

// HeaderAt formats the top bar for t.
func HeaderAt(t time.Time) Header {
	return Header{
		Date:    t.Format("Monday, January 2, 2006"),
		Time:    t.Format("3:04:05 PM"),
		Weather: Weather,
	}
}
