package race

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bookmirror/internal/components/telemetry"
	"bookmirror/internal/mirrors"

	"github.com/stretchr/testify/require"
)

func resultPage(titles ...string) string {
	var rows strings.Builder
	for i, title := range titles {
		rows.WriteString(fmt.Sprintf(
			`<tr><td>%d</td><td>Author %d</td><td><a href="book/index.php?md5=%d">%s</a></td><td><a href="ads.php?md5=%d">get</a></td></tr>`,
			i+1, i+1, i+1, title, i+1,
		))
	}
	return `<html><body>
<table><tr><td>Library</td><td>Menu</td></tr></table>
<table>
<tr><th>ID</th><th>Author(s)</th><th>Title</th><th>Mirrors</th></tr>
` + rows.String() + `
</table>
</body></html>`
}

const emptyPage = `<html><body><table><tr><th>ID</th><th>Author(s)</th><th>Title</th></tr></table></body></html>`

func newCoordinator(t testing.TB) (*Coordinator, *telemetry.TestAPI) {
	tel := telemetry.NewTestAPI()
	return NewCoordinator(Config{UserAgent: "bookmirror-test"}, tel), tel
}

// mirrorBases returns n distinct mirror bases served by the same test server.
func mirrorBases(srv *httptest.Server, n int) []string {
	bases := make([]string, n)
	for i := range bases {
		bases[i] = fmt.Sprintf("%s/m%d/", srv.URL, i)
	}
	return bases
}

func newRegistry(t testing.TB, bases []string) mirrors.Registry {
	reg, errs := mirrors.NewRegistry(bases...)
	require.Empty(t, errs)
	return reg
}

func TestSearchFirstNonEmptyWins(t *testing.T) {
	const bases = 4
	// every base is listed in both dialects
	const mirrorCount = bases * 2
	winnerPath := "/m2/index.php"

	var failed atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == winnerPath {
			deadline := time.Now().Add(5 * time.Second)
			for failed.Load() < mirrorCount-1 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
			w.Write([]byte(resultPage("Dune", "Dune Messiah")))
			return
		}

		defer failed.Add(1)
		switch {
		case strings.HasPrefix(r.URL.Path, "/m0/"):
			w.WriteHeader(http.StatusServiceUnavailable)
		case strings.HasPrefix(r.URL.Path, "/m1/"):
			w.Write([]byte(emptyPage))
		default:
			w.Write([]byte("<html>maintenance</html>"))
		}
	}))
	defer srv.Close()

	reg := newRegistry(t, mirrorBases(srv, bases))
	require.Equal(t, mirrorCount, reg.Len())

	coordinator, _ := newCoordinator(t)
	outcome := coordinator.Search(context.Background(), []string{"dune"}, reg, Options{
		Limit:          25,
		Timeout:        5 * time.Second,
		RaceAllMirrors: true,
	})

	require.Len(t, outcome.Records, 2)
	require.Equal(t, "Dune", outcome.Records[0].Title)
	require.Equal(t, "Dune Messiah", outcome.Records[1].Title)
	require.Equal(t, srv.URL+"/m2/ads.php?md5=1", outcome.Records[0].Download)
	require.Equal(t, "dune", outcome.Query)

	var winner mirrors.Descriptor
	for _, d := range reg.Descriptors() {
		if strings.HasSuffix(d.Endpoint(), winnerPath) {
			winner = d
		}
	}
	require.Equal(t, winner.Name(), outcome.Mirror)

	require.Len(t, outcome.Failures, mirrorCount-1)
	seen := map[string]bool{}
	for _, f := range outcome.Failures {
		require.NotEqual(t, winner.Name(), f.Mirror)
		require.False(t, seen[f.Mirror], "duplicate failure for %s", f.Mirror)
		seen[f.Mirror] = true
		require.Error(t, f.Error)
	}
}

func TestSearchAllMirrorsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "index.php") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(emptyPage))
	}))
	defer srv.Close()

	reg := newRegistry(t, mirrorBases(srv, 3))
	coordinator, tel := newCoordinator(t)
	outcome := coordinator.Search(context.Background(), []string{"nothing"}, reg, Options{
		Timeout:        5 * time.Second,
		RaceAllMirrors: true,
	})

	require.Empty(t, outcome.Records)
	require.NotNil(t, outcome.Records)
	require.Empty(t, outcome.Mirror)
	require.Len(t, outcome.Failures, reg.Len())

	names := map[string]bool{}
	for _, d := range reg.Descriptors() {
		names[d.Name()] = true
	}
	for _, f := range outcome.Failures {
		require.True(t, names[f.Mirror], "unknown mirror %s", f.Mirror)
		delete(names, f.Mirror)

		if strings.HasSuffix(f.Mirror, "(index)") {
			var statusErr *HTTPStatusError
			require.True(t, errors.As(f.Error, &statusErr))
			require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
			continue
		}
		require.ErrorIs(t, f.Error, ErrNoResults)
	}
	require.Empty(t, names)

	require.NotEmpty(t, tel.Reports("warning", report_coordinator_search))
}

func TestSearchWithoutRacing(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(resultPage("Solaris")))
	}))
	defer srv.Close()

	reg := newRegistry(t, mirrorBases(srv, 3))
	coordinator, _ := newCoordinator(t)
	outcome := coordinator.Search(context.Background(), []string{"solaris"}, reg, Options{
		Timeout:        5 * time.Second,
		RaceAllMirrors: false,
	})

	first, ok := reg.First()
	require.True(t, ok)
	require.Equal(t, first.Name(), outcome.Mirror)
	require.Len(t, outcome.Records, 1)
	require.Empty(t, outcome.Failures)
	require.Equal(t, int64(1), hits.Load())
}

func TestSearchSendsDialectParams(t *testing.T) {
	queries := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case strings.HasSuffix(r.URL.Path, "index.php"):
			queries <- fmt.Sprintf("index %s %s %s", q.Get("req"), q.Get("res"), strings.Join(q["columns[]"], ","))
		default:
			queries <- fmt.Sprintf("search %s %s %s", q.Get("req"), q.Get("res"), q.Get("view"))
		}
		w.Write([]byte(emptyPage))
	}))
	defer srv.Close()

	reg := newRegistry(t, []string{srv.URL})
	coordinator, _ := newCoordinator(t)
	coordinator.Search(context.Background(), []string{"the left hand"}, reg, Options{
		Limit:          50,
		Timeout:        5 * time.Second,
		RaceAllMirrors: true,
	})

	got := map[string]bool{<-queries: true, <-queries: true}
	require.Equal(t, map[string]bool{
		"index the left hand 50 t,a,s,y,p,i": true,
		"search the left hand 50 simple":     true,
	}, got)
}

func TestSearchTriesVariantsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("req") == "book 1" {
			w.Write([]byte(resultPage("Book 1")))
			return
		}
		w.Write([]byte(emptyPage))
	}))
	defer srv.Close()

	reg := newRegistry(t, []string{srv.URL})
	coordinator, _ := newCoordinator(t)

	outcome := coordinator.Search(context.Background(), []string{"book one", "book 1"}, reg, Options{
		Timeout:        5 * time.Second,
		RaceAllMirrors: true,
	})
	require.Equal(t, "book 1", outcome.Query)
	require.Len(t, outcome.Records, 1)

	outcome = coordinator.Search(context.Background(), []string{"book one", "book uno"}, reg, Options{
		Timeout:        5 * time.Second,
		RaceAllMirrors: true,
	})
	require.Empty(t, outcome.Records)
	// only the failures of the last variant are kept
	require.Equal(t, "book uno", outcome.Query)
	require.Len(t, outcome.Failures, reg.Len())
}

func TestSearchRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	reg := newRegistry(t, []string{srv.URL})
	coordinator, _ := newCoordinator(t)

	start := time.Now()
	outcome := coordinator.Search(context.Background(), []string{"slow"}, reg, Options{
		Timeout:        100 * time.Millisecond,
		RaceAllMirrors: true,
	})
	require.Less(t, time.Since(start), 4*time.Second)

	require.Empty(t, outcome.Records)
	require.Len(t, outcome.Failures, 2)
	for _, f := range outcome.Failures {
		require.ErrorIs(t, f.Error, context.DeadlineExceeded)
	}
}

func TestSearchTruncatesToLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultPage("One", "Two", "Three")))
	}))
	defer srv.Close()

	reg := newRegistry(t, []string{srv.URL})
	coordinator, _ := newCoordinator(t)
	outcome := coordinator.Search(context.Background(), []string{"numbers"}, reg, Options{
		Limit:   2,
		Timeout: 5 * time.Second,
	})
	require.Len(t, outcome.Records, 2)
	require.Equal(t, "Two", outcome.Records[1].Title)
}

func TestSearchEmptyRegistry(t *testing.T) {
	coordinator, _ := newCoordinator(t)
	outcome := coordinator.Search(context.Background(), []string{"anything"}, mirrors.Registry{}, Options{
		RaceAllMirrors: true,
	})
	require.Empty(t, outcome.Records)
	require.Empty(t, outcome.Failures)
}

const feedPayload = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>new</title><link>https://libgen.rs/</link><description>new</description>
<item>
<title>Item</title>
<link>https://libgen.rs/book/index.php?md5=ABC</link>
<description><![CDATA[<img src="/covers/1.jpg"><b>Title X</b><table><tr><td><font color="grey">Size:</font></td><td>1774879 [pdf]</td></tr></table>]]></description>
</item>
</channel></rss>`

func TestFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mirror/rss/index.php" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedPayload))
	}))
	defer srv.Close()

	reg := newRegistry(t, []string{srv.URL + "/mirror/search.php", srv.URL + "/missing/"})
	coordinator, _ := newCoordinator(t)

	first, _ := reg.Get(0)
	records, err := coordinator.Feed(context.Background(), first)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Title X", records[0].Title)
	require.Equal(t, "1774879", records[0].Size)
	require.Equal(t, "pdf", records[0].Extension)
	require.Equal(t, "https://libgen.rs/covers/1.jpg", records[0].Cover)

	missing, _ := reg.Get(2)
	_, err = coordinator.Feed(context.Background(), missing)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	_, err = coordinator.Feed(context.Background(), mirrors.Descriptor{})
	require.Error(t, err)
}
