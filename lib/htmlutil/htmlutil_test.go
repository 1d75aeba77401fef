package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestCleanText(t *testing.T) {
	doc := parse(t, "<div>  Contest\n\tRating   1,652  </div>")
	require.Equal(t, "Contest Rating 1,652", CleanText(doc.Find("div")))
}

func TestFindLabeled(t *testing.T) {
	doc := parse(t, `<html><body>
<div>Total Questions <span>418</span></div>
<div>Total Contests <span>25</span></div>
</body></html>`)

	require.Equal(t, "418", FindLabeled(doc, "div", "span", "total questions"))
	require.Equal(t, "25", FindLabeled(doc, "div", "span", "Total Contests"))
	require.Equal(t, "", FindLabeled(doc, "div", "span", "Awards"))
}
