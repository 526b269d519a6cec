package mirrors

import (
	"errors"
	"net/url"
	"strconv"
)

// DefaultLimit is the page size requested when the caller gives none.
const DefaultLimit = 25

var ErrUnknownDialect = errors.New("unknown dialect")

// BuildParams returns the query parameters for a search in the given dialect.
// The two shapes share only `req` and `res`, mixing them up is a caller error.
func BuildParams(dialect Dialect, query string, limit int) (url.Values, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("req", query)
	params.Set("res", strconv.Itoa(limit))

	switch dialect {
	case DialectIndex:
		for _, c := range []string{"t", "a", "s", "y", "p", "i"} {
			params.Add("columns[]", c)
		}
		for _, o := range []string{"f", "e", "s", "a", "p", "w"} {
			params.Add("objects[]", o)
		}
		params.Add("topics[]", "l")
		params.Set("filesuns", "all")
	case DialectSearch:
		params.Set("view", "simple")
		params.Set("phrase", "1")
		params.Set("column", "def")
		params.Set("lg_topic", "libgen")
		params.Set("open", "0")
	default:
		return nil, ErrUnknownDialect
	}

	return params, nil
}
