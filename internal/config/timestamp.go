package config

import (
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
// An empty input yields zero.
func ParseTimestamp(input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		return strconv.ParseInt(input, 10, 64)
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return tm.Unix(), nil
}

// TimeWindow resolves begin/end flags, defaulting to the seven days before now.
func TimeWindow(begin, end string, now time.Time) (int64, int64, error) {
	from, err := ParseTimestamp(begin)
	if err != nil {
		return 0, 0, err
	}
	to, err := ParseTimestamp(end)
	if err != nil {
		return 0, 0, err
	}
	if to == 0 {
		to = now.Unix()
	}
	if from == 0 {
		from = now.Add(-7 * 24 * time.Hour).Unix()
	}
	return from, to, nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
