package utils

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"time"
)

var isoDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a strict YYYY-MM-DD calendar date. Anything else, including
// datetimes and locale formats, is rejected.
func ParseDate(s string) (time.Time, error) {
	if !isoDateRegex.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date format: %s", s)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %s", s)
	}
	return t.UTC(), nil
}

// RoundTwoDecimals rounds half away from zero to 2 decimal places.
func RoundTwoDecimals(v float64) float64 {
	return math.Round(v*100) / 100
}

// GenerateOTP returns a random 6-digit verification code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
