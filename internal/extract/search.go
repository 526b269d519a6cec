package extract

import (
	"bytes"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Records extracts every search record from a result page, relative links are
// resolved against baseURL. It never fails, a page it cannot make sense of gives an
// empty slice.
func (e Extractor) Records(markup []byte, baseURL string) (records []SearchRecord) {
	defer e.recoverInto(report_extractor_records, &records)

	records = []SearchRecord{}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(markup))
	if err != nil {
		e.tel.ReportDebug("parse result page", "err", err)
		return records
	}

	var base *url.URL
	if baseURL != "" {
		base, err = url.Parse(baseURL)
		if err != nil {
			e.tel.ReportDebug("invalid base url", "base", baseURL, "err", err)
			base = nil
		}
	}

	table, ok := findResultTable(doc)
	if !ok {
		e.tel.ReportDebug("no result table found")
		return records
	}

	for _, cells := range table.dataRows() {
		r := row{cells: cells, table: table}
		rec := r.record(base)
		if rec.Title == "" {
			e.tel.ReportDebug("row without title", "id", rec.ID)
		}
		records = append(records, rec)
	}

	e.tel.ReportCount(report_extractor_records, int64(len(records)))
	return records
}
