package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podpub/config"
)

func testPodcast() *config.Podcast {
	return &config.Podcast{
		Title:        "Boring Talks",
		Description:  "A show about interesting boredom",
		Author:       "Sam Host",
		Email:        "sam@example.com",
		Language:     "en",
		Category:     "Technology",
		Website:      "https://boringtalks.example.com",
		MediaBaseURL: "https://media.example.com",
		CoverURL:     "https://media.example.com/cover.jpg",
	}
}

func testItem() Item {
	return Item{
		GUID:        "ep001-first",
		Title:       "Ep 1",
		Description: "The first one",
		AudioURL:    "https://media.example.com/episodes/ep001-first/audio.mp3",
		AudioBytes:  12345678,
		Number:      1,
		Duration:    "00:42:10",
		ShowNotes:   "# Ep 1 - Show Notes\n\nGreat stuff.",
		Published:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildChannel(t *testing.T) {
	out, err := Build(testPodcast(), []Item{testItem()})
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, doc, `xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"`)
	assert.Contains(t, doc, "<title>Boring Talks</title>")
	assert.Contains(t, doc, "<itunes:author>Sam Host</itunes:author>")
	assert.Contains(t, doc, `<itunes:category text="Technology">`)
	assert.Contains(t, doc, "<itunes:explicit>no</itunes:explicit>")
	assert.Contains(t, doc, `<itunes:image href="https://media.example.com/cover.jpg">`)
}

func TestBuildItem(t *testing.T) {
	out, err := Build(testPodcast(), []Item{testItem()})
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, `<guid isPermaLink="false">ep001-first</guid>`)
	assert.Contains(t, doc, `<enclosure url="https://media.example.com/episodes/ep001-first/audio.mp3" length="12345678" type="audio/mpeg">`)
	assert.Contains(t, doc, "<itunes:episode>1</itunes:episode>")
	assert.Contains(t, doc, "<itunes:duration>00:42:10</itunes:duration>")
	assert.Contains(t, doc, "<pubDate>Sat, 01 Aug 2026 12:00:00 +0000</pubDate>")
	assert.Contains(t, doc, "<![CDATA[# Ep 1 - Show Notes")
}

func TestBuildOmitsEmptyOptionalTags(t *testing.T) {
	item := testItem()
	item.Number = 0
	item.Duration = ""
	item.ShowNotes = ""

	out, err := Build(testPodcast(), []Item{item})
	require.NoError(t, err)

	doc := string(out)
	assert.NotContains(t, doc, "itunes:episode>")
	assert.NotContains(t, doc, "itunes:duration")
	assert.NotContains(t, doc, "content:encoded")
}

func TestBuildExplicitFlag(t *testing.T) {
	pc := testPodcast()
	pc.Explicit = true

	out, err := Build(pc, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<itunes:explicit>yes</itunes:explicit>")
}

func TestBuildDeterministic(t *testing.T) {
	items := []Item{testItem()}

	first, err := Build(testPodcast(), items)
	require.NoError(t, err)
	second, err := Build(testPodcast(), items)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestBuildPreservesItemOrder(t *testing.T) {
	a := testItem()
	b := testItem()
	b.GUID = "ep002-second"
	b.Title = "Ep 2"
	b.Number = 2

	out, err := Build(testPodcast(), []Item{a, b})
	require.NoError(t, err)

	doc := string(out)
	assert.Less(t, strings.Index(doc, "ep001-first"), strings.Index(doc, "ep002-second"))
}
