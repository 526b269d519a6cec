package extract

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func rssFeed(items ...string) []byte {
	body := ""
	for _, item := range items {
		body += item
	}
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Library Genesis: new books</title>
<link>https://libgen.rs/</link>
<description>Recently added</description>
%s
</channel>
</rss>`, body))
}

func TestExtractFeedRecords(t *testing.T) {
	payload := rssFeed(`<item>
<title>Item Title</title>
<link>https://libgen.rs/book/index.php?md5=ABC</link>
<pubDate>Mon, 02 Jan 2023 15:04:05 +0000</pubDate>
<description><![CDATA[<img src="/covers/1.jpg"><b>Title X</b><table><tr><td><font color="grey">Size:</font></td><td>1774879 [pdf]</td></tr></table>]]></description>
</item>`)

	records := ExtractFeedRecords(payload)
	require.Len(t, records, 1)

	rec := records[0]
	require.Equal(t, "https://libgen.rs/covers/1.jpg", rec.Cover)
	require.Equal(t, "Title X", rec.Title)
	require.Equal(t, "1774879", rec.Size)
	require.Equal(t, "pdf", rec.Extension)
	require.Equal(t, "https://libgen.rs/book/index.php?md5=ABC", rec.Link)
	require.Equal(t, map[string]string{"size": "1774879 [pdf]"}, rec.Fields)
	require.NotNil(t, rec.Published)
	require.True(t, rec.Published.Equal(time.Date(2023, time.January, 2, 15, 4, 5, 0, time.UTC)))
}

func TestExtractFeedRecordsMetadata(t *testing.T) {
	payload := rssFeed(
		`<item>
<title>Fallback Title</title>
<link>https://libgen.rs/book/index.php?md5=DEF</link>
<description>&lt;table&gt;
&lt;tr&gt;&lt;td&gt;&lt;font color="grey"&gt;Author(s):&lt;/font&gt;&lt;/td&gt;&lt;td&gt;Ursula K. Le Guin&lt;/td&gt;&lt;/tr&gt;
&lt;tr&gt;&lt;td&gt;&lt;font color="grey"&gt;Size:&lt;/font&gt;&lt;/td&gt;&lt;td&gt;12 MB&lt;/td&gt;&lt;/tr&gt;
&lt;tr&gt;&lt;td&gt;Plain:&lt;/td&gt;&lt;td&gt;ignored&lt;/td&gt;&lt;/tr&gt;
&lt;tr&gt;&lt;td&gt;&lt;font&gt;Three:&lt;/font&gt;&lt;/td&gt;&lt;td&gt;a&lt;/td&gt;&lt;td&gt;b&lt;/td&gt;&lt;/tr&gt;
&lt;/table&gt;</description>
</item>`,
		`<item>
<title>Bare</title>
<link>https://libgen.rs/book/index.php?md5=GHI</link>
</item>`,
	)

	records := ExtractFeedRecords(payload)
	require.Len(t, records, 2)

	rec := records[0]
	require.Equal(t, "Fallback Title", rec.Title)
	require.Empty(t, rec.Cover)
	require.Equal(t, "12 MB", rec.Size)
	require.Empty(t, rec.Extension)
	require.Equal(t, map[string]string{
		"author(s)": "Ursula K. Le Guin",
		"size":      "12 MB",
	}, rec.Fields)
	require.Nil(t, rec.Published)

	bare := records[1]
	require.Equal(t, "Bare", bare.Title)
	require.Equal(t, "https://libgen.rs/book/index.php?md5=GHI", bare.Link)
	require.Empty(t, bare.Fields)
	require.Empty(t, bare.Size)
}

func TestExtractFeedRecordsMalformed(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("not a feed"),
		[]byte("<html><body>wrong document</body></html>"),
	}

	for _, input := range inputs {
		records := ExtractFeedRecords(input)
		require.NotNil(t, records)
		require.Empty(t, records, string(input))
	}
}
