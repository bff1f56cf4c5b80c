package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fseconds(v float64) *float64 { return &v }

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   *float64
		want string
	}{
		{nil, "-"},
		{fseconds(0.0005), "<1ms"},
		{fseconds(0.25), "250ms"},
		{fseconds(0.9994), "999ms"},
		{fseconds(0.9995), "1.00s"},
		{fseconds(3.14), "3.14s"},
		{fseconds(59.99), "59.99s"},
		{fseconds(125), "2m 5.0s"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatDuration(c.in))
	}
}

func TestFormatTimestamp_Malformed(t *testing.T) {
	assert.Equal(t, "not-a-date", FormatTimestamp("not-a-date"))
	assert.Equal(t, "", FormatTimestamp(""))
}

func TestFormatTimestamp_Valid(t *testing.T) {
	out := FormatTimestamp("2026-03-01T10:30:00Z")
	assert.NotEqual(t, "2026-03-01T10:30:00Z", out)
	assert.Contains(t, out, "2026")
}
