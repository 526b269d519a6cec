package race

import (
	"encoding/json"
	"testing"

	"bookmirror/internal/extract"

	"github.com/stretchr/testify/require"
)

func TestOutcomeJSONKeepsFailureMessages(t *testing.T) {
	outcome := Outcome{
		Records: []extract.SearchRecord{},
		Failures: []Failure{
			{Mirror: "libgen.a (index)", Error: ErrNoResults},
			{Mirror: "libgen.b (search)", Error: &HTTPStatusError{
				URL:        "https://libgen.b/search.php",
				StatusCode: 503,
				Status:     "503 Service Unavailable",
			}},
			{Mirror: "libgen.c (index)"},
		},
		Query: "dune",
	}

	encoded, err := json.Marshal(outcome)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"records": [],
		"failures": [
			{"mirror": "libgen.a (index)", "error": "no results"},
			{"mirror": "libgen.b (search)", "error": "unexpected status 503 Service Unavailable from https://libgen.b/search.php"},
			{"mirror": "libgen.c (index)", "error": ""}
		],
		"query": "dune"
	}`, string(encoded))
}
