package contracts

import (
	"fmt"
	"strconv"
	"strings"
)

// Period identifies a fiscal quarter, e.g. 2024Q1
type Period struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// ParsePeriod parses the "2024Q1" key format
func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	idx := strings.Index(s, "Q")
	if idx <= 0 || idx == len(s)-1 {
		return Period{}, fmt.Errorf("invalid period %q: want YYYYQn", s)
	}

	year, err := strconv.Atoi(s[:idx])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period year %q: %w", s, err)
	}
	quarter, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period quarter %q: %w", s, err)
	}

	p := Period{Year: year, Quarter: quarter}
	if !p.Valid() {
		return Period{}, fmt.Errorf("invalid period %q: quarter must be 1-4", s)
	}
	return p, nil
}

// Valid reports whether the quarter is within 1..4 and the year is set
func (p Period) Valid() bool {
	return p.Year > 0 && p.Quarter >= 1 && p.Quarter <= 4
}

// IsZero reports whether the period is unset
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Quarter == 0
}

// Compare returns -1, 0 or 1
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Quarter < o.Quarter:
		return -1
	case p.Quarter > o.Quarter:
		return 1
	}
	return 0
}

// Before reports whether p precedes o
func (p Period) Before(o Period) bool {
	return p.Compare(o) < 0
}

func (p Period) String() string {
	return fmt.Sprintf("%dQ%d", p.Year, p.Quarter)
}
