package vault

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// NowString returns the current time as a millisecond epoch string, the
// timestamp format used throughout the document.
func NowString() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// NewID mints a unique row identifier.
func NewID() string {
	return "id-" + NowString() + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ClampString strips control characters and truncates value to maxLen
// runes. When trim is set, surrounding whitespace goes first.
func ClampString(value string, maxLen int, trim bool) string {
	if trim {
		value = strings.TrimSpace(value)
	}
	var b strings.Builder
	count := 0
	for _, ch := range value {
		if ch < 32 || ch == 127 {
			continue
		}
		if count >= maxLen {
			break
		}
		b.WriteRune(ch)
		count++
	}
	return b.String()
}

// ParseInt64 converts a string to int64, rounding floats, with 0 as the
// fallback for anything unparseable.
func ParseInt64(value string) int64 {
	s := strings.TrimSpace(value)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(math.Round(f))
	}
	return 0
}

// ParseNonNegativeInt64 is ParseInt64 floored at zero.
func ParseNonNegativeInt64(value string) int64 {
	n := ParseInt64(value)
	if n < 0 {
		return 0
	}
	return n
}

// ParseMilitaryTime parses a 4-digit 24-hour time into minutes since
// midnight. Non-digit characters are ignored; anything that does not leave
// exactly four digits fails.
func ParseMilitaryTime(value string) (int64, bool) {
	var digits []rune
	for _, ch := range value {
		if ch >= '0' && ch <= '9' {
			digits = append(digits, ch)
		}
	}
	if len(digits) != 4 {
		return 0, false
	}
	hours, _ := strconv.ParseInt(string(digits[0:2]), 10, 64)
	minutes, _ := strconv.ParseInt(string(digits[2:4]), 10, 64)
	if hours > 23 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// RoundToQuarterHour rounds minutes to the nearest 15, clamped to the day.
func RoundToQuarterHour(minutes int64) int64 {
	rounded := int64(math.Round(float64(minutes)/15.0)) * 15
	if rounded < 0 {
		return 0
	}
	if max := int64(23*60 + 45); rounded > max {
		return max
	}
	return rounded
}

// FormatMilitaryTime renders minutes since midnight as HH:MM.
func FormatMilitaryTime(minutes int64) string {
	h := minutes / 60
	m := minutes % 60
	if m < 0 {
		m += 60
		h--
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// FormatTotalHours renders minutes as decimal hours with two places.
func FormatTotalHours(minutes int64) string {
	return fmt.Sprintf("%.2f", float64(minutes)/60.0)
}

// JobIDName joins a job id and job name with a single space, skipping
// whichever parts are blank.
func JobIDName(jobID, jobName string) string {
	parts := make([]string, 0, 2)
	for _, part := range []string{strings.TrimSpace(jobID), strings.TrimSpace(jobName)} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// ParseWeeklyTime parses the free-form times used in the weekly log:
// "9", "930", "9:30", "0930", with optional am/pm markers (including a
// bare trailing "a" or "p"). Returns minutes since midnight.
func ParseWeeklyTime(value string) (int64, bool) {
	raw := strings.ToLower(strings.TrimSpace(value))
	if raw == "" {
		return 0, false
	}
	meridiem := detectWeeklyMeridiem(raw)

	var cleaned []rune
	for _, ch := range raw {
		if (ch >= '0' && ch <= '9') || ch == ':' {
			cleaned = append(cleaned, ch)
		}
	}
	if len(cleaned) == 0 {
		return 0, false
	}

	var hours, minutes int64
	text := string(cleaned)
	if strings.Contains(text, ":") {
		parts := strings.Split(text, ":")
		if len(parts) != 2 {
			return 0, false
		}
		h, err1 := strconv.ParseInt(parts[0], 10, 64)
		m, err2 := strconv.ParseInt(parts[1], 10, 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		hours, minutes = h, m
	} else {
		var err error
		switch len(text) {
		case 1, 2:
			hours, err = strconv.ParseInt(text, 10, 64)
		case 3:
			hours, err = strconv.ParseInt(text[0:1], 10, 64)
			if err == nil {
				minutes, err = strconv.ParseInt(text[1:3], 10, 64)
			}
		case 4:
			hours, err = strconv.ParseInt(text[0:2], 10, 64)
			if err == nil {
				minutes, err = strconv.ParseInt(text[2:4], 10, 64)
			}
		default:
			return 0, false
		}
		if err != nil {
			return 0, false
		}
	}
	if minutes < 0 || minutes > 59 {
		return 0, false
	}

	switch meridiem {
	case 'a':
		if hours < 1 || hours > 12 {
			return 0, false
		}
		if hours == 12 {
			hours = 0
		}
	case 'p':
		if hours < 1 || hours > 12 {
			return 0, false
		}
		if hours != 12 {
			hours += 12
		}
	default:
		if hours < 0 || hours > 23 {
			return 0, false
		}
	}
	return hours*60 + minutes, true
}

func detectWeeklyMeridiem(raw string) rune {
	var b strings.Builder
	for _, ch := range raw {
		if ch == '.' || unicode.IsSpace(ch) {
			continue
		}
		b.WriteRune(ch)
	}
	compact := b.String()
	switch {
	case strings.Contains(compact, "am") || strings.HasSuffix(compact, "a"):
		return 'a'
	case strings.Contains(compact, "pm") || strings.HasSuffix(compact, "p"):
		return 'p'
	default:
		return 0
	}
}

// FormatWeeklyHours renders a minute span as decimal hours, or "" when the
// span is unknown.
func FormatWeeklyHours(minutes int64, known bool) string {
	if !known {
		return ""
	}
	return fmt.Sprintf("%.2f", float64(minutes)/60.0)
}
