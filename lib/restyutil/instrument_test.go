package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestInstrumentClientDumpsExchanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<table><tr><td>dumped</td></tr></table>"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "dumps")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.Equal(t, dir, output.Directory())

	client := resty.New()
	client.SetHeader("User-Agent", "bookmirror-test")
	InstrumentClient(client, output)

	res, err := client.R().
		SetQueryParam("req", "dune").
		Get(srv.URL + "/index.php")
	require.NoError(t, err)
	require.True(t, res.IsSuccess())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasSuffix(entries[0].Name(), ".txt"))

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	dump := string(contents)
	require.Contains(t, dump, "---- REQUEST ----")
	require.Contains(t, dump, "GET "+srv.URL+"/index.php?req=dune")
	require.Contains(t, dump, "User-Agent: bookmirror-test")
	require.Contains(t, dump, "---- RESPONSE ----")
	require.Contains(t, dump, "<td>dumped</td>")
}

func TestInstrumentClientNilOutput(t *testing.T) {
	client := resty.New()
	InstrumentClient(client, nil)
}

func TestNewFilesystemOutputRequiresDirectory(t *testing.T) {
	_, err := NewFilesystemOutput("")
	require.Error(t, err)
}
