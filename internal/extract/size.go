package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var sizeRegex = regexp.MustCompile(`(?i)^([\d.,]+)\s*([a-z]*)$`)

var sizeUnits = map[string]float64{
	"":      1,
	"b":     1,
	"bytes": 1,
	"k":     1 << 10,
	"kb":    1 << 10,
	"kib":   1 << 10,
	"m":     1 << 20,
	"mb":    1 << 20,
	"mib":   1 << 20,
	"g":     1 << 30,
	"gb":    1 << 30,
	"gib":   1 << 30,
}

// SizeBytes converts a human readable size like "2.5 MB", "1 Mb" or "830 kB" to bytes.
// It returns 0 for anything it does not understand.
func SizeBytes(size string) int64 {
	match := sizeRegex.FindStringSubmatch(strings.TrimSpace(size))
	if match == nil {
		return 0
	}

	number := match[1]
	switch strings.Count(number, ",") {
	case 0:
	case 1:
		if strings.Contains(number, ".") {
			number = strings.ReplaceAll(number, ",", "")
		} else {
			number = strings.ReplaceAll(number, ",", ".")
		}
	default:
		number = strings.ReplaceAll(number, ",", "")
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value < 0 {
		return 0
	}
	multiplier, ok := sizeUnits[strings.ToLower(match[2])]
	if !ok {
		return 0
	}
	return int64(math.Round(value * multiplier))
}
