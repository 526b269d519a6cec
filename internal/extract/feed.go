package extract

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"bookmirror/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// FeedBaseURL is what relative cover paths in feed items are resolved against, feed
// payloads do not carry the origin they were served from.
const FeedBaseURL = "https://libgen.rs/"

var feedBase, _ = url.Parse(FeedBaseURL)

var feedSizeRegex = regexp.MustCompile(`^(\d+) \[(\w+)\]$`)

// FeedRecords extracts a record from every item of a syndication feed. Malformed
// payloads give an empty slice.
func (e Extractor) FeedRecords(payload []byte) (records []FeedRecord) {
	defer e.recoverInto(report_extractor_feed_records, &records)

	records = []FeedRecord{}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(payload))
	if err != nil {
		e.tel.ReportDebug("parse feed", "err", err)
		return records
	}

	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		records = append(records, e.feedRecord(item))
	}

	e.tel.ReportCount(report_extractor_feed_records, int64(len(records)))
	return records
}

func (e Extractor) feedRecord(item *gofeed.Item) FeedRecord {
	rec := FeedRecord{
		Link:      item.Link,
		Fields:    map[string]string{},
		Published: item.PublishedParsed,
	}

	description := item.Description
	if strings.TrimSpace(description) == "" {
		description = item.Content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		e.tel.ReportDebug("parse feed item description", "link", item.Link, "err", err)
		rec.Title = htmlutil.CleanText(item.Title)
		return rec
	}

	if src, ok := doc.Find("img[src]").First().Attr("src"); ok {
		if cover, ok := htmlutil.ResolveHref(feedBase, src); ok {
			rec.Cover = cover
		}
	}

	rec.Title = htmlutil.SelectionText(doc.Find("b").First())
	if rec.Title == "" {
		rec.Title = htmlutil.CleanText(item.Title)
	}

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() != 2 {
			return
		}
		font := cells.First().Find("font")
		if font.Length() == 0 {
			return
		}
		key := strings.TrimSpace(strings.TrimSuffix(htmlutil.SelectionText(font.First()), ":"))
		if key == "" {
			return
		}
		rec.Fields[strings.ToLower(key)] = htmlutil.SelectionText(cells.Last())
	})

	size := rec.Fields["size"]
	if match := feedSizeRegex.FindStringSubmatch(size); match != nil {
		rec.Size = match[1]
		rec.Extension = match[2]
	} else {
		rec.Size = size
	}

	return rec
}
