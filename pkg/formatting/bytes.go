// Package formatting converts byte sizes between configuration strings
// ("32MB") and counts.
package formatting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidSize is returned for any byte size ParseBytes cannot accept.
var ErrInvalidSize = errors.New("invalid byte size")

// units are base-1024. int64 tops out just under 8 EB.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// aliases map the short and IEC spellings onto units.
var aliases = map[string]string{
	"":  "B",
	"K": "KB", "KIB": "KB",
	"M": "MB", "MIB": "MB",
	"G": "GB", "GIB": "GB",
	"T": "TB", "TIB": "TB",
	"P": "PB", "PIB": "PB",
	"E": "EB", "EIB": "EB",
}

// FormatBytes renders n with the largest unit that keeps the value at or
// above 1, using precision decimal places (negative is treated as 0).
func FormatBytes(n int64, precision int) string {
	if n < 0 {
		return "-" + FormatBytes(-n, precision)
	}
	precision = max(precision, 0)

	i := 0
	size := float64(n)
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}

	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses sizes such as "512", "1.5 kb", "32MB" or "2GiB".
// A bare number is bytes. Fractional bytes are truncated.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	cut := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	num, unit := s, ""
	if cut >= 0 {
		num, unit = s[:cut], strings.TrimSpace(s[cut:])
	}
	if num == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	unit = strings.ToUpper(unit)
	if canonical, ok := aliases[unit]; ok {
		unit = canonical
	}
	exp := -1
	for i, u := range units {
		if u == unit {
			exp = i
			break
		}
	}
	if exp < 0 {
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidSize, unit)
	}

	bytes := value * math.Pow(1024, float64(exp))
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return int64(bytes), nil
}
