package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div>
			<a href="/book/1">  First
				book </a>
			<a>no href</a>
			<a href="https://other.example/x">Other<br>Site</a>
			<a href="%zz">broken</a>
		</div>`))
	require.NoError(t, err)

	base, err := url.Parse("https://libgen.example/search.php?req=x")
	require.NoError(t, err)

	anchors := GetAnchors(base, doc.Find("a"))
	require.Equal(t, []Anchor{
		{Name: "First book", Href: "https://libgen.example/book/1"},
		{Name: "Other Site", Href: "https://other.example/x"},
	}, anchors)
}

func TestResolveHref(t *testing.T) {
	base, err := url.Parse("https://libgen.example/dir/index.php")
	require.NoError(t, err)

	link, ok := ResolveHref(base, "ads.php?md5=abc")
	require.True(t, ok)
	require.Equal(t, "https://libgen.example/dir/ads.php?md5=abc", link)

	_, ok = ResolveHref(base, "   ")
	require.False(t, ok)

	link, ok = ResolveHref(nil, "/covers/1.jpg")
	require.True(t, ok)
	require.Equal(t, "/covers/1.jpg", link)
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b c", CleanText("\n a \t b\u200b  c "))
}
