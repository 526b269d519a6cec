package extract

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"bookmirror/lib/htmlutil"
	"bookmirror/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

type Field string

const (
	FieldID        Field = "id"
	FieldAuthor    Field = "author"
	FieldTitle     Field = "title"
	FieldPublisher Field = "publisher"
	FieldYear      Field = "year"
	FieldLanguage  Field = "language"
	FieldPages     Field = "pages"
	FieldSize      Field = "size"
	FieldExtension Field = "extension"
)

// Fields is every field of a search record, in column order of the fallback layout.
var Fields = []Field{
	FieldID,
	FieldAuthor,
	FieldTitle,
	FieldPublisher,
	FieldYear,
	FieldLanguage,
	FieldPages,
	FieldSize,
	FieldExtension,
}

// fieldNames are the names a field goes by in header cells and data-label attributes.
var fieldNames = map[Field][]string{
	FieldID:        {"id", "#"},
	FieldAuthor:    {"author", "authors"},
	FieldTitle:     {"title"},
	FieldPublisher: {"publisher"},
	FieldYear:      {"year"},
	FieldLanguage:  {"language", "lang"},
	FieldPages:     {"pages", "page", "pp"},
	FieldSize:      {"size"},
	FieldExtension: {"extension", "ext", "format"},
}

// fallbackPositions is the column layout of mirrors that render an incomplete header.
// id and title share the first column there, the id sits in the title link.
var fallbackPositions = map[Field]int{
	FieldID:        0,
	FieldTitle:     0,
	FieldAuthor:    1,
	FieldPublisher: 2,
	FieldYear:      3,
	FieldLanguage:  4,
	FieldPages:     5,
	FieldSize:      6,
	FieldExtension: 7,
}

// matchesField reports whether a header or label text names the field, each part of
// a combined header like "series/title" is checked on its own.
func matchesField(text string, f Field) bool {
	for _, part := range strings.Split(textutil.NormalizeName(text), "/") {
		part = strings.TrimSpace(part)
		for _, name := range fieldNames[f] {
			if textutil.MatchWord(part, name) {
				return true
			}
		}
	}
	return false
}

type row struct {
	cells []*goquery.Selection
	table resultTable
}

// cellStrategy locates the cell holding a field, it returns false when it has no
// opinion about where the field is.
type cellStrategy func(r row, f Field) (*goquery.Selection, bool)

var cellStrategies = []cellStrategy{
	cellByLabel,
	cellByHeader,
	cellByPosition,
}

func cellByLabel(r row, f Field) (*goquery.Selection, bool) {
	for _, cell := range r.cells {
		label, ok := cell.Attr("data-label")
		if ok && matchesField(label, f) {
			return cell, true
		}
	}
	return nil, false
}

func cellByHeader(r row, f Field) (*goquery.Selection, bool) {
	idx := -1
	for _, name := range fieldNames[f] {
		if i, ok := r.table.header[name]; ok {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, text := range r.table.headerTexts {
			if text != "" && matchesField(text, f) {
				idx = i
				break
			}
		}
	}
	if idx < 0 || idx >= len(r.cells) {
		return nil, false
	}
	return r.cells[idx], true
}

// cellByPosition falls back to the fixed column layout, unless the header names that
// column as another field. id and title share a column and never claim it from each other.
func cellByPosition(r row, f Field) (*goquery.Selection, bool) {
	idx, ok := fallbackPositions[f]
	if !ok || idx >= len(r.cells) {
		return nil, false
	}
	if owner, claimed := r.table.columnField(idx); claimed && owner != f && fallbackPositions[owner] != idx {
		return nil, false
	}
	return r.cells[idx], true
}

func (r row) cell(f Field) (*goquery.Selection, bool) {
	for _, strategy := range cellStrategies {
		if cell, ok := strategy(r, f); ok {
			return cell, true
		}
	}
	return nil, false
}

// cellReader turns a located cell into the field's value.
type cellReader func(cell *goquery.Selection) string

var fieldReaders = map[Field]cellReader{
	FieldID:    readID,
	FieldTitle: readTitle,
}

func readText(cell *goquery.Selection) string {
	return htmlutil.SelectionText(cell)
}

var digitsRegex = regexp.MustCompile(`^\d+$`)

func readID(cell *goquery.Selection) string {
	text := readText(cell)
	if digitsRegex.MatchString(text) {
		return text
	}
	id := ""
	cell.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		// links inside bold text point at the series, not the book
		if a.ParentsFiltered("b").Length() > 0 {
			return true
		}
		href, _ := a.Attr("href")
		link, err := url.Parse(href)
		if err != nil {
			return true
		}
		candidate := link.Query().Get("id")
		if digitsRegex.MatchString(candidate) {
			id = candidate
			return false
		}
		return true
	})
	if id != "" {
		return id
	}
	return text
}

// readTitle prefers the text of the first link that is not part of a bolded series
// label, italic annotations such as isbns are dropped. Without such a link the cell
// text is used, minus the series label.
func readTitle(cell *goquery.Selection) string {
	clone := cell.Clone()
	clone.Find("i").Remove()

	title := ""
	clone.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if a.ParentsFiltered("b").Length() > 0 {
			return true
		}
		title = htmlutil.SelectionText(a)
		return title == ""
	})
	if title != "" {
		return title
	}

	clone.Find("b").FilterFunction(func(_ int, b *goquery.Selection) bool {
		return b.Find("a").Length() > 0
	}).Remove()
	return htmlutil.SelectionText(clone)
}

func (r row) field(f Field) string {
	cell, ok := r.cell(f)
	if !ok {
		return ""
	}
	read, ok := fieldReaders[f]
	if !ok {
		read = readText
	}
	return read(cell)
}

// readSeries returns the bold text of a title cell when the bold element wraps a link.
func readSeries(cell *goquery.Selection) string {
	series := ""
	cell.Find("b").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		if b.Find("a").Length() == 0 {
			return true
		}
		series = htmlutil.SelectionText(b)
		return series == ""
	})
	return series
}

var tooltipAttrs = []string{"title", "data-original-title"}

var timestampRegex = regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:[ T]\d{2}:\d{2}(?::\d{2})?)?`)

func parseTooltipTime(tooltip string) (time.Time, bool) {
	match := timestampRegex.FindString(tooltip)
	if match == "" {
		return time.Time{}, false
	}
	parsed, err := dateparse.ParseIn(match, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// readAdded looks for a timestamp in the tooltips of the cell's links.
func readAdded(cell *goquery.Selection) *time.Time {
	var added *time.Time
	cell.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		for _, attr := range tooltipAttrs {
			tooltip, ok := a.Attr(attr)
			if !ok {
				continue
			}
			if t, ok := parseTooltipTime(tooltip); ok {
				added = &t
				return false
			}
		}
		return true
	})
	return added
}

var downloadMarkers = []string{"ads.php", "get.php"}

// downloadLink returns the first link of the row that points at a download page.
func (r row) downloadLink(base *url.URL) string {
	for _, cell := range r.cells {
		for _, anchor := range htmlutil.GetAnchors(base, cell.Find("a[href]")) {
			link, err := url.Parse(anchor.Href)
			if err != nil {
				continue
			}
			for _, marker := range downloadMarkers {
				if strings.Contains(link.Path, marker) {
					return anchor.Href
				}
			}
		}
	}
	return ""
}

func (r row) record(base *url.URL) SearchRecord {
	values := make(map[Field]string, len(Fields))
	for _, f := range Fields {
		values[f] = r.field(f)
	}

	rec := SearchRecord{
		ID:        values[FieldID],
		Author:    values[FieldAuthor],
		Title:     values[FieldTitle],
		Publisher: values[FieldPublisher],
		Year:      values[FieldYear],
		Language:  values[FieldLanguage],
		Pages:     values[FieldPages],
		Size:      values[FieldSize],
		Extension: values[FieldExtension],
		Download:  r.downloadLink(base),
	}
	rec.SizeBytes = SizeBytes(rec.Size)

	if cell, ok := r.cell(FieldTitle); ok {
		rec.Series = readSeries(cell)
		rec.Added = readAdded(cell)
	}
	return rec
}
