// Package export renders polls into downloadable artifacts.
package export

import (
	"regexp"
	"strconv"
	"strings"

	"nextstep-polls/internal/domain"
)

const (
	csvHeader    = "Option, Votes"
	csvSeparator = ", "
	// CSVContentType is the media type served with ToCSV output
	CSVContentType = "text/csv; charset=utf-8"
)

var slugBreak = regexp.MustCompile(`[^A-Za-z0-9]+`)

// ToCSV renders one "<option>, <votes>" row per option under an
// "Option, Votes" header. Rows are joined by "\n" with no trailing newline.
func ToCSV(poll domain.Poll) string {
	lines := make([]string, 0, len(poll.Options)+1)
	lines = append(lines, csvHeader)
	for _, o := range poll.Options {
		lines = append(lines, escape(o.Text)+csvSeparator+strconv.Itoa(o.Votes))
	}
	return strings.Join(lines, "\n")
}

// escape quotes v when it holds a comma or a double quote, doubling any
// embedded quotes
func escape(v string) string {
	if !strings.ContainsAny(v, `,"`) {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// FileName builds a download name by replacing each run of characters other
// than ASCII letters and digits in the title with "-" and appending suffix,
// so "Ward 12 - MLA" with ".csv" gives "Ward-12-MLA.csv". An empty title falls
// back to the poll id.
func FileName(poll domain.Poll, suffix string) string {
	slug := slugBreak.ReplaceAllString(poll.Title, "-")
	if slug == "" {
		slug = poll.ID
	}
	return slug + suffix
}
