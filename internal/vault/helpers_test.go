package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampString(t *testing.T) {
	assert.Equal(t, "abc", ClampString("  abc  ", 10, true))
	assert.Equal(t, "  abc", ClampString("  abc", 10, false))
	assert.Equal(t, "ab", ClampString("abcdef", 2, false))
	assert.Equal(t, "abc", ClampString("a\x00b\tc", 10, false))
	assert.Equal(t, "", ClampString("\x01\x02", 10, true))
}

func TestParseInt64(t *testing.T) {
	assert.Equal(t, int64(42), ParseInt64("42"))
	assert.Equal(t, int64(3), ParseInt64(" 2.6 "))
	assert.Equal(t, int64(-5), ParseInt64("-5"))
	assert.Equal(t, int64(0), ParseInt64("nope"))
	assert.Equal(t, int64(0), ParseNonNegativeInt64("-5"))
}

func TestParseMilitaryTime(t *testing.T) {
	cases := []struct {
		in      string
		minutes int64
		ok      bool
	}{
		{"0900", 9 * 60, true},
		{"09:30", 9*60 + 30, true},
		{"2359", 23*60 + 59, true},
		{"0000", 0, true},
		{"2400", 0, false},
		{"0960", 0, false},
		{"930", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		minutes, ok := ParseMilitaryTime(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.minutes, minutes, "input %q", tc.in)
		}
	}
}

func TestRoundToQuarterHour(t *testing.T) {
	assert.Equal(t, int64(9*60), RoundToQuarterHour(9*60+7))
	assert.Equal(t, int64(9*60+15), RoundToQuarterHour(9*60+8))
	assert.Equal(t, int64(0), RoundToQuarterHour(-10))
	assert.Equal(t, int64(23*60+45), RoundToQuarterHour(23*60+59))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "09:05", FormatMilitaryTime(9*60+5))
	assert.Equal(t, "1.50", FormatTotalHours(90))
	assert.Equal(t, "", FormatWeeklyHours(90, false))
	assert.Equal(t, "1.50", FormatWeeklyHours(90, true))
}

func TestJobIDName(t *testing.T) {
	assert.Equal(t, "123 Driver", JobIDName(" 123 ", "Driver"))
	assert.Equal(t, "Driver", JobIDName("", "Driver"))
	assert.Equal(t, "123", JobIDName("123", "  "))
	assert.Equal(t, "", JobIDName("", ""))
}

func TestParseWeeklyTime(t *testing.T) {
	cases := []struct {
		in      string
		minutes int64
		ok      bool
	}{
		{"9", 9 * 60, true},
		{"930", 9*60 + 30, true},
		{"9:30", 9*60 + 30, true},
		{"0930", 9*60 + 30, true},
		{"9am", 9 * 60, true},
		{"9 a.m.", 9 * 60, true},
		{"9p", 21 * 60, true},
		{"12am", 0, true},
		{"12pm", 12 * 60, true},
		{"1330", 13*60 + 30, true},
		{"13pm", 0, false},
		{"970", 0, false},
		{"", 0, false},
		{"lunch", 0, false},
	}
	for _, tc := range cases {
		minutes, ok := ParseWeeklyTime(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.minutes, minutes, "input %q", tc.in)
		}
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewID()
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %q", id)
		seen[id] = struct{}{}
	}
}
