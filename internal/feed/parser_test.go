package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Example Show</title>
    <link>https://example.com</link>
    <description>Talk.</description>
    <item>
      <title>Ep 1</title>
      <description><![CDATA[<p>Hello <b>world</b></p><script>x()</script>]]></description>
      <pubDate>Sun, 15 Oct 2023 12:00:00 GMT</pubDate>
      <enclosure url="https://cdn.example.com/1.mp3" length="1024" type="audio/mpeg"/>
      <itunes:duration>1800</itunes:duration>
      <itunes:image href="https://cdn.example.com/1.jpg"/>
      <itunes:keywords>go, Databases</itunes:keywords>
      <category>Tech</category>
      <category>go</category>
    </item>
    <item>
      <title>Trailer</title>
      <description>Coming soon</description>
    </item>
  </channel>
</rss>`

func TestParseDrafts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	drafts, err := NewParser(srv.Client()).ParseDrafts(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	ep := drafts[0]
	assert.Equal(t, "Ep 1", ep.Title)
	assert.Equal(t, "Hello world", ep.Description)
	assert.Equal(t, "Sun, 15 Oct 2023 12:00:00 GMT", ep.ReleaseDate)
	assert.Equal(t, "https://cdn.example.com/1.mp3", ep.AudioURL)
	assert.Equal(t, "1800", ep.Duration)
	require.NotNil(t, ep.ImageURL)
	assert.Equal(t, "https://cdn.example.com/1.jpg", *ep.ImageURL)
	assert.Equal(t, []string{"Tech", "go", "Databases"}, ep.Tags)

	trailer := drafts[1]
	assert.Equal(t, "Coming soon", trailer.Description)
	assert.Empty(t, trailer.AudioURL)
	assert.Nil(t, trailer.ImageURL)
}

func TestParseDraftsErrors(t *testing.T) {
	t.Run("not a feed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html><body>nope</body></html>"))
		}))
		defer srv.Close()

		_, err := NewParser(srv.Client()).ParseDrafts(context.Background(), srv.URL)
		assert.Error(t, err)
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewParser(srv.Client()).ParseDrafts(context.Background(), srv.URL)
		assert.Error(t, err)
	})
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "a b", plainText("  a\n\tb "))
	assert.Equal(t, "Tom & Jerry", plainText("Tom &amp; Jerry"))
	assert.Equal(t, "one two", plainText("<ul><li>one</li> <li>two</li></ul>"))
}
