package htmlutil

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// CleanText collapses whitespace and strips non-printable runes from a
// selection's text, which profile pages are full of.
func CleanText(sel *goquery.Selection) string {
	var out strings.Builder
	lastSpace := true
	for _, c := range sel.Text() {
		if unicode.IsSpace(c) {
			if !lastSpace {
				out.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if !unicode.IsPrint(c) {
			continue
		}
		out.WriteRune(c)
		lastSpace = false
	}
	return strings.TrimRight(out.String(), " ")
}

// FindLabeled returns the cleaned text of the first node matching
// `valueSel` whose surrounding `itemSel` block contains `label`
// (case-insensitive). Stat cards on profile pages are generally laid out
// as label/value pairs inside a repeated block.
func FindLabeled(doc *goquery.Document, itemSel, valueSel, label string) string {
	label = strings.ToLower(label)
	var value string
	doc.Find(itemSel).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(item.Text()), label) {
			return true
		}
		value = CleanText(item.Find(valueSel).First())
		return false
	})
	return value
}
