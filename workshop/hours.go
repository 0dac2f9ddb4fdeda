package workshop

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"kondapalli/utils"
)

var timePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ParseTime reads an H:MM or HH:MM wall-clock time.
func ParseTime(s string) (hour, minute int, err error) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, utils.BadRequest("Invalid time format")
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// window is the half-open range of opening hours [open, close).
type window struct {
	open, close int
	message     string
}

var (
	saturday = window{open: 11, close: 15, message: "Saturday hours are 11:00 AM - 3:00 PM"}
	weekday  = window{open: 10, close: 17, message: "Weekday hours are 10:00 AM - 5:00 PM"}
)

func windowFor(d time.Weekday) (window, bool) {
	switch d {
	case time.Sunday:
		return window{}, false
	case time.Saturday:
		return saturday, true
	default:
		return weekday, true
	}
}

// CheckWindow rejects a visit on a closed day or with a start hour outside
// the opening hours of day.
func CheckWindow(day time.Time, slot string) error {
	w, open := windowFor(day.Weekday())
	if !open {
		return utils.BadRequest("Workshop is closed on Sundays")
	}
	hour, _, err := ParseTime(slot)
	if err != nil {
		return err
	}
	if hour < w.open || hour >= w.close {
		return utils.BadRequest(w.message)
	}
	return nil
}

// Slots lists the hourly starting times offered on day. The last slot starts
// one hour before closing.
func Slots(day time.Weekday) []string {
	w, open := windowFor(day)
	if !open {
		return []string{}
	}
	out := make([]string, 0, w.close-w.open)
	for h := w.open; h < w.close; h++ {
		out = append(out, fmt.Sprintf("%02d:00", h))
	}
	return out
}
