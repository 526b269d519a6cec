// Package mirrors resolves the set of catalog mirrors that are raced against each other.
//
// Every mirror base is queried in both parameter dialects since mirrors (and sometimes
// the same mirror over time) answer differently to the two calling conventions.
package mirrors

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// Dialect is one of the two query-parameter shapes a mirror may expect.
type Dialect string

const (
	DialectIndex  Dialect = "index"
	DialectSearch Dialect = "search"
)

// Dialects is the order in which descriptors are derived for a base.
var Dialects = []Dialect{DialectIndex, DialectSearch}

func (d Dialect) Script() string {
	switch d {
	case DialectIndex:
		return "index.php"
	case DialectSearch:
		return "search.php"
	}
	return ""
}

// FeedScript replaces a dialect script in the endpoint path to get the syndication feed.
const FeedScript = "rss/index.php"

// DefaultBaseURLs are the mirrors tried when nothing else is configured.
var DefaultBaseURLs = []string{
	"https://libgen.is",
	"https://libgen.rs",
	"https://libgen.st",
	"https://libgen.li",
	"https://libgen.gs",
}

// Descriptor is a single raceable endpoint. It is immutable once resolved.
type Descriptor struct {
	endpoint *url.URL
	dialect  Dialect
	name     string
}

func (d Descriptor) Endpoint() string {
	if d.endpoint == nil {
		return ""
	}
	return d.endpoint.String()
}

func (d Descriptor) Dialect() Dialect { return d.dialect }

func (d Descriptor) Name() string { return d.name }

// FeedURL derives the syndication feed of the mirror. When the endpoint path contains one
// of the dialect scripts it is replaced by FeedScript, otherwise FeedScript is resolved
// relative to the endpoint.
func (d Descriptor) FeedURL() string {
	if d.endpoint == nil {
		return ""
	}
	feed := *d.endpoint
	feed.RawQuery = ""
	feed.Fragment = ""
	for _, dialect := range Dialects {
		script := dialect.Script()
		if strings.Contains(feed.Path, script) {
			feed.Path = strings.Replace(feed.Path, script, FeedScript, 1)
			feed.RawPath = ""
			return feed.String()
		}
	}
	return feed.ResolveReference(&url.URL{Path: FeedScript}).String()
}

// ConfigError describes a user supplied mirror entry that was skipped.
type ConfigError struct {
	Index int
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mirror entry %d (%v): %v", e.Index, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

var (
	ErrNotString   = errors.New("not a string")
	ErrBlank       = errors.New("blank url")
	ErrNotHTTP     = errors.New("scheme must be http or https")
	ErrMissingHost = errors.New("missing host")
)

// UserConfig is the user supplied part of the mirror list. Mirrors is decoded from
// json5 as-is so that entries of the wrong type can be reported instead of failing the
// whole config.
type UserConfig struct {
	Mirrors []any `json:"mirrors"`
}

// Registry is the resolved, deduplicated list of descriptors. It is read-only and
// safe to share between goroutines.
type Registry struct {
	descriptors []Descriptor
}

// NewRegistry builds a registry out of base urls without any user configuration,
// invalid bases are reported the same way as in Resolve.
func NewRegistry(bases ...string) (Registry, []error) {
	entries := make([]any, len(bases))
	for i, b := range bases {
		entries[i] = b
	}
	var r Registry
	seen := map[string]struct{}{}
	errs := r.add(entries, seen)
	return r, errs
}

// Resolve merges the default mirrors with the user configuration (which may be nil).
// Malformed user entries are skipped and returned as *ConfigError, they are never fatal.
func Resolve(cfg *UserConfig) (Registry, []error) {
	defaults := make([]any, len(DefaultBaseURLs))
	for i, b := range DefaultBaseURLs {
		defaults[i] = b
	}

	var r Registry
	seen := map[string]struct{}{}
	errs := r.add(defaults, seen)
	if cfg != nil {
		errs = append(errs, r.add(cfg.Mirrors, seen)...)
	}
	return r, errs
}

func (r *Registry) add(entries []any, seen map[string]struct{}) []error {
	var errs []error
	for i, entry := range entries {
		raw, ok := entry.(string)
		if !ok {
			errs = append(errs, &ConfigError{Index: i, Value: entry, Err: ErrNotString})
			continue
		}
		base, err := normalizeBase(raw)
		if err != nil {
			errs = append(errs, &ConfigError{Index: i, Value: entry, Err: err})
			continue
		}
		for _, dialect := range Dialects {
			key := base.String() + "|" + string(dialect)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			r.descriptors = append(r.descriptors, newDescriptor(base, dialect))
		}
	}
	return errs
}

func newDescriptor(base *url.URL, dialect Dialect) Descriptor {
	endpoint := base.ResolveReference(&url.URL{Path: dialect.Script()})
	return Descriptor{
		endpoint: endpoint,
		dialect:  dialect,
		name:     fmt.Sprintf("%s%s (%s)", base.Host, strings.TrimSuffix(base.Path, "/"), dialect),
	}
}

// normalizeBase turns a user supplied url into the directory the dialect scripts live in,
// dropping any query, fragment or trailing dialect script.
func normalizeBase(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrBlank
	}
	normalized, err := purell.NormalizeURLString(
		raw,
		purell.FlagsSafe|
			purell.FlagRemoveDuplicateSlashes|
			purell.FlagRemoveFragment,
	)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrNotHTTP
	}
	if u.Host == "" {
		return nil, ErrMissingHost
	}

	dir := u.Path
	for _, dialect := range Dialects {
		if path.Base(dir) == dialect.Script() {
			dir = path.Dir(dir)
			break
		}
	}
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}

	return &url.URL{
		Scheme: u.Scheme,
		User:   u.User,
		Host:   u.Host,
		Path:   dir,
	}, nil
}

func (r Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

func (r Registry) Len() int {
	return len(r.descriptors)
}

// First returns the first descriptor, ok is false for an empty registry.
func (r Registry) First() (Descriptor, bool) {
	if len(r.descriptors) == 0 {
		return Descriptor{}, false
	}
	return r.descriptors[0], true
}

// Get returns the descriptor at index i.
func (r Registry) Get(i int) (Descriptor, bool) {
	if i < 0 || i >= len(r.descriptors) {
		return Descriptor{}, false
	}
	return r.descriptors[i], true
}
