package extract

import (
	"slices"
	"strings"

	"bookmirror/lib/htmlutil"
	"bookmirror/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// resultTable is the table a search page keeps its results in.
type resultTable struct {
	rows      []*goquery.Selection
	headerIdx int
	// header maps the normalized header text to the column index.
	header map[string]int
	// headerTexts is the normalized header text of every column, in column order.
	headerTexts []string
}

// directRows returns the rows that belong to the table itself and not to a table
// nested inside of it.
func directRows(table *goquery.Selection) []*goquery.Selection {
	var rows []*goquery.Selection
	table.ChildrenFiltered("tr, thead, tbody, tfoot").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "tr" {
			rows = append(rows, s)
			return
		}
		s.ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
			rows = append(rows, tr)
		})
	})
	return rows
}

func rowCells(row *goquery.Selection) []*goquery.Selection {
	var cells []*goquery.Selection
	row.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, cell)
	})
	return cells
}

func cellTexts(cells []*goquery.Selection) []string {
	texts := make([]string, len(cells))
	for i, cell := range cells {
		texts[i] = textutil.NormalizeName(htmlutil.SelectionText(cell))
	}
	return texts
}

func isHeaderRow(row *goquery.Selection) bool {
	// a row wrapping a whole nested table would match on the nested table's header
	if row.Find("table").Length() > 0 {
		return false
	}
	joined := strings.Join(cellTexts(rowCells(row)), " ")
	return textutil.MatchName(joined, []string{"author"}) && textutil.MatchName(joined, []string{"title"})
}

// findResultTable returns the first table that has a row mentioning both "author"
// and "title", that row is taken as the header.
func findResultTable(doc *goquery.Document) (resultTable, bool) {
	var found resultTable
	ok := false
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := directRows(table)
		for i, row := range rows {
			if !isHeaderRow(row) {
				continue
			}
			found = newResultTable(rows, i)
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

func newResultTable(rows []*goquery.Selection, headerIdx int) resultTable {
	texts := cellTexts(rowCells(rows[headerIdx]))
	header := map[string]int{}
	for i, text := range texts {
		if text == "" {
			continue
		}
		if _, exists := header[text]; exists {
			continue
		}
		header[text] = i
	}
	return resultTable{
		rows:        rows,
		headerIdx:   headerIdx,
		header:      header,
		headerTexts: texts,
	}
}

// columnField returns the field the header names column idx as, if any.
func (t resultTable) columnField(idx int) (Field, bool) {
	if idx >= len(t.headerTexts) || t.headerTexts[idx] == "" {
		return "", false
	}
	for _, f := range Fields {
		if matchesField(t.headerTexts[idx], f) {
			return f, true
		}
	}
	return "", false
}

// dataRows returns the rows after the header that hold data.
func (t resultTable) dataRows() [][]*goquery.Selection {
	var out [][]*goquery.Selection
	for _, row := range t.rows[t.headerIdx+1:] {
		if row.ChildrenFiltered("td").Length() == 0 {
			continue
		}
		cells := rowCells(row)
		texts := cellTexts(cells)
		if strings.Join(texts, "") == "" {
			continue
		}
		if slices.Equal(texts, t.headerTexts) {
			continue
		}
		out = append(out, cells)
	}
	return out
}
