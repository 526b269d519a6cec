package telemetry

import (
	"strings"
	"sync"
)

// Report is a single call made to a TestAPI.
type Report struct {
	Kind   string
	ID     string
	Params []any
	Count  int64
}

// TestAPI records every report so tests can assert on what a component reported.
// It is safe for concurrent use.
type TestAPI struct {
	mu      sync.Mutex
	reports []Report
}

func NewTestAPI() *TestAPI {
	return &TestAPI{}
}

func (t *TestAPI) record(r Report) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reports = append(t.reports, r)
}

func (t *TestAPI) ReportBroken(id string, params ...any) {
	t.record(Report{Kind: "broken", ID: id, Params: params})
}

func (t *TestAPI) ReportWarning(id string, params ...any) {
	t.record(Report{Kind: "warning", ID: id, Params: params})
}

func (t *TestAPI) ReportDebug(msg string, params ...any) {
	t.record(Report{Kind: "debug", ID: msg, Params: params})
}

func (t *TestAPI) ReportCount(id string, count int64) {
	t.record(Report{Kind: "count", ID: id, Count: count})
}

// Reports returns a copy of the reports of the given kind whose id contains `id`.
// An empty kind matches every kind.
func (t *TestAPI) Reports(kind, id string) []Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Report
	for _, r := range t.reports {
		if kind != "" && r.Kind != kind {
			continue
		}
		if !strings.Contains(r.ID, id) {
			continue
		}
		out = append(out, r)
	}
	return out
}
