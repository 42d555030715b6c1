package clock

import "strings"

type Period int

const (
	Day Period = iota
	Night
)

// Day covers hours [DayStart, DayEnd).
const (
	DayStart = 6
	DayEnd   = 18
)

func Classify(hour int) Period {
	if hour >= DayStart && hour < DayEnd {
		return Day
	}
	return Night
}

func (p Period) String() string {
	if p == Night {
		return "night"
	}
	return "day"
}

// ParsePeriod accepts "day" or "night"; anything else is Day.
func ParsePeriod(value string) Period {
	if strings.EqualFold(strings.TrimSpace(value), "night") {
		return Night
	}
	return Day
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	*p = ParsePeriod(string(text))
	return nil
}
