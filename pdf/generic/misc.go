package generic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Common errors
var (
	ErrInvalidDate = errors.New("invalid PDF date")
)

// PdfError is the base error type for PDF object handling.
type PdfError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PdfError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *PdfError) Unwrap() error {
	return e.Cause
}

// ParseDate parses a PDF date string of the form D:YYYYMMDDHHmmSSOHH'mm'.
// Every component after the year is optional; a missing offset means UTC.
func ParseDate(s string) (time.Time, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(raw) < 4 {
		return time.Time{}, &PdfError{Message: fmt.Sprintf("date %q too short", s), Cause: ErrInvalidDate}
	}

	fields := []int{1, 1, 1, 0, 0, 0} // year month day hour minute second
	widths := []int{4, 2, 2, 2, 2, 2}
	pos := 0
	for i, width := range widths {
		if pos >= len(raw) || !isDigit(raw[pos]) {
			break
		}
		if pos+width > len(raw) {
			return time.Time{}, &PdfError{Message: fmt.Sprintf("date %q truncated", s), Cause: ErrInvalidDate}
		}
		v, err := strconv.Atoi(raw[pos : pos+width])
		if err != nil {
			return time.Time{}, &PdfError{Message: fmt.Sprintf("date %q", s), Cause: ErrInvalidDate}
		}
		fields[i] = v
		pos += width
	}

	loc := time.UTC
	if pos < len(raw) {
		tz := raw[pos:]
		switch tz[0] {
		case 'Z':
		case '+', '-':
			offset, err := parseOffset(tz[1:])
			if err != nil {
				return time.Time{}, &PdfError{Message: fmt.Sprintf("date %q offset", s), Cause: ErrInvalidDate}
			}
			if tz[0] == '-' {
				offset = -offset
			}
			loc = time.FixedZone("", offset)
		default:
			return time.Time{}, &PdfError{Message: fmt.Sprintf("date %q has trailing data", s), Cause: ErrInvalidDate}
		}
	}

	t := time.Date(fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], 0, loc)
	if t.Month() != time.Month(fields[1]) || t.Day() != fields[2] {
		return time.Time{}, &PdfError{Message: fmt.Sprintf("date %q out of range", s), Cause: ErrInvalidDate}
	}
	return t, nil
}

// FormatDate renders t as a PDF date string.
func FormatDate(t time.Time) string {
	_, offset := t.Zone()
	if offset == 0 {
		return t.Format("D:20060102150405Z")
	}
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("%s%c%02d'%02d'", t.Format("D:20060102150405"), sign, offset/3600, (offset%3600)/60)
}

// parseOffset parses HH'mm' (the minute part and apostrophes being optional).
func parseOffset(s string) (int, error) {
	s = strings.ReplaceAll(s, "'", "")
	if len(s) != 2 && len(s) != 4 {
		return 0, ErrInvalidDate
	}
	hours, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, err
	}
	minutes := 0
	if len(s) == 4 {
		if minutes, err = strconv.Atoi(s[2:]); err != nil {
			return 0, err
		}
	}
	return hours*3600 + minutes*60, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
