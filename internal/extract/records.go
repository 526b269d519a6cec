// Package extract turns the markup served by catalog mirrors into records.
//
// Mirrors are run by different operators and change their markup without notice, so
// nothing in here fails on a structure it does not recognize: a missing table gives no
// records, a missing cell gives an empty field.
package extract

import (
	"fmt"
	"time"

	"bookmirror/internal/components/assert"
	"bookmirror/internal/components/telemetry"
)

const (
	report_extractor_records      = "extractor.records"
	report_extractor_feed_records = "extractor.feed-records"
)

// SearchRecord is one row of a search result page.
type SearchRecord struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Title     string `json:"title"`
	Series    string `json:"series,omitempty"`
	Publisher string `json:"publisher"`
	Year      string `json:"year"`
	Language  string `json:"language"`
	Pages     string `json:"pages"`
	Size      string `json:"size"`
	// SizeBytes is Size converted to bytes, 0 when Size could not be understood.
	SizeBytes int64      `json:"size_bytes"`
	Extension string     `json:"extension"`
	Download  string     `json:"download,omitempty"`
	Added     *time.Time `json:"added,omitempty"`
}

// FeedRecord is one item of a mirror's syndication feed.
type FeedRecord struct {
	Title     string            `json:"title"`
	Link      string            `json:"link"`
	Cover     string            `json:"cover,omitempty"`
	Size      string            `json:"size"`
	Extension string            `json:"extension"`
	Fields    map[string]string `json:"fields,omitempty"`
	Published *time.Time        `json:"published,omitempty"`
}

// Extractor runs the extraction engines and reports what it could not find.
type Extractor struct {
	tel telemetry.API
}

func NewExtractor(tel telemetry.API) Extractor {
	assert.NotNil(tel)
	return Extractor{tel: telemetry.NewScopedAPI("extract", tel)}
}

var defaultExtractor = Extractor{tel: telemetry.NopAPI{}}

// ExtractRecords extracts search records from a result page without reporting anything.
func ExtractRecords(markup []byte, baseURL string) []SearchRecord {
	return defaultExtractor.Records(markup, baseURL)
}

// ExtractFeedRecords extracts feed records from a feed payload without reporting anything.
func ExtractFeedRecords(payload []byte) []FeedRecord {
	return defaultExtractor.FeedRecords(payload)
}

// recoverInto keeps a bug in a single page's extraction from taking down a whole race.
func (e Extractor) recoverInto(id string, out any) {
	r := recover()
	if r == nil {
		return
	}
	e.tel.ReportBroken(id, fmt.Errorf("panic: %v", r))
	switch o := out.(type) {
	case *[]SearchRecord:
		*o = []SearchRecord{}
	case *[]FeedRecord:
		*o = []FeedRecord{}
	}
}
