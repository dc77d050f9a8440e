package rules

import "time"

// term pairs an election-term number with the half-open date range
// [Start, End) during which it was in session. Ranges are contiguous: a
// date not covered by any of these falls before term 4 or after the last
// known term and TermForDate returns 0.
type term struct {
	Number int
	Start  time.Time
	End    time.Time
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// terms is the fixed election-term table: each European Parliament term
// runs five years from its constitutive session. Used to substitute the
// term number into URL templates like "PV-<term>-<date>_EN.pdf".
var terms = []term{
	{4, mustDate("1994-07-19"), mustDate("1999-07-20")},
	{5, mustDate("1999-07-20"), mustDate("2004-07-20")},
	{6, mustDate("2004-07-20"), mustDate("2009-07-14")},
	{7, mustDate("2009-07-14"), mustDate("2014-07-01")},
	{8, mustDate("2014-07-01"), mustDate("2019-07-02")},
	{9, mustDate("2019-07-02"), mustDate("2024-07-16")},
}

// TermForDate returns the election-term number in session on date, or 0
// if date falls outside the known table.
func TermForDate(date time.Time) int {
	for _, t := range terms {
		if !date.Before(t.Start) && date.Before(t.End) {
			return t.Number
		}
	}
	return 0
}
