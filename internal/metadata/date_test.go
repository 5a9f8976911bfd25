package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/John-Robertt/progmeta/internal/domain"
)

func TestParseReleaseDate_Parsed(t *testing.T) {
	cases := map[string]string{
		"05 Jun 2003":   "2003-06-05",
		"5 Jun 2003":    "2003-06-05",
		"25 Dec 1998":   "1998-12-25",
		"01 jan 1970":   "1970-01-01",
		"29 Feb 2004":   "2004-02-29",
		" 5 Jun 2003":   "2003-06-05",
		"05\tJun 2003":  "2003-06-05",
		"5  JUN\t 2003": "2003-06-05",
	}
	for in, want := range cases {
		got := ParseReleaseDate(in)
		assert.Equal(t, domain.DateParsed, got.State, "in=%q", in)
		assert.Equal(t, want, got.Date, "in=%q", in)
		assert.Equal(t, in, got.Source)
	}
}

func TestParseReleaseDate_Fallback(t *testing.T) {
	for _, in := range []string{
		"",
		"June 2003",
		"2003-06-05",
		"05 June 2003",
		"05 Jun 03",
		"31 Feb 2003",
		"00 Jan 2000",
		"05 Jux 2003",
		"05 Jun 2003 extra",
		"  5 Jun 2003",
		" 05 Jun 2003",
		"05 Jun 2003\n",
		"005 Jun 2003",
		"05Jun 2003",
		"05 Jun 12003",
		"garbage",
	} {
		got := ParseReleaseDate(in)
		assert.Equal(t, domain.DateFallback, got.State, "in=%q", in)
		assert.Equal(t, domain.EpochDate, got.Date, "in=%q", in)
	}
}

func TestParseReleaseDate_EpochIsDistinguishable(t *testing.T) {
	// 同样输出 1970-01-01，但状态不同。
	real := ParseReleaseDate("01 Jan 1970")
	bad := ParseReleaseDate("sometime")
	assert.Equal(t, real.Date, bad.Date)
	assert.NotEqual(t, real.State, bad.State)
}
