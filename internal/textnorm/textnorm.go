// Package textnorm cleans cell text read from workbooks and delimited files.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Clean removes control and zero-width characters, turns tabs and line
// breaks into spaces, applies NFKC and trims the result.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\r', '\n':
			return ' '
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Header cleans a column name. Internal whitespace is removed entirely so
// "メール アドレス" and "メールアドレス" name the same column.
func Header(s string) string {
	return strings.Join(strings.Fields(Clean(s)), "")
}

var zipPattern = regexp.MustCompile(`〒?\s*(\d{3})[-‐−]?(\d{4})`)

// SplitAddress pulls a postal code out of an address cell.
// It returns the code as "〒123-4567" and the address without it.
func SplitAddress(text string) (zip, address string) {
	text = strings.TrimSpace(text)
	m := zipPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return "", text
	}
	zip = "〒" + text[m[2]:m[3]] + "-" + text[m[4]:m[5]]
	address = strings.TrimSpace(text[:m[0]] + text[m[1]:])
	return zip, address
}

// FixPhone strips hyphens and restores the leading zero that spreadsheets
// drop from numeric phone cells.
func FixPhone(num string) string {
	t := strings.ReplaceAll(strings.TrimSpace(num), "-", "")
	if t == "" || t[0] == '0' || (len(t) != 10 && len(t) != 11) {
		return t
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return t
		}
	}
	return "0" + t
}
