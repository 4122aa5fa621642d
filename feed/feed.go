// Package feed builds the podcast RSS document that Spotify and Apple
// Podcasts poll for new episodes. The feed is regenerated deterministically
// from the full set of published episodes on every rss step.
package feed

import (
	"encoding/xml"
	"fmt"
	"time"

	"podpub/config"
)

// Item is one feed entry for a published episode
type Item struct {
	GUID        string
	Title       string
	Description string
	AudioURL    string
	AudioBytes  int64
	Number      int
	Season      int
	EpisodeType string
	Duration    string // HH:MM:SS, empty if unknown
	ShowNotes   string
	Published   time.Time
}

type rssDoc struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	ITunes  string   `xml:"xmlns:itunes,attr"`
	Content string   `xml:"xmlns:content,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Language    string  `xml:"language"`
	Author      string  `xml:"itunes:author"`
	Owner       owner   `xml:"itunes:owner"`
	Category    catTag  `xml:"itunes:category"`
	Explicit    string  `xml:"itunes:explicit"`
	Image       *imgTag `xml:"itunes:image,omitempty"`
	Items       []item  `xml:"item"`
}

type owner struct {
	Name  string `xml:"itunes:name"`
	Email string `xml:"itunes:email"`
}

type catTag struct {
	Text string `xml:"text,attr"`
}

type imgTag struct {
	Href string `xml:"href,attr"`
}

type enclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type item struct {
	GUID        guid      `xml:"guid"`
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Enclosure   enclosure `xml:"enclosure"`
	PubDate     string    `xml:"pubDate"`
	Episode     string    `xml:"itunes:episode,omitempty"`
	Season      string    `xml:"itunes:season,omitempty"`
	EpisodeType string    `xml:"itunes:episodeType,omitempty"`
	Duration    string    `xml:"itunes:duration,omitempty"`
	Content     *cdata    `xml:"content:encoded,omitempty"`
}

type guid struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

// Build renders the RSS document for the podcast and its published episodes.
// Items are emitted in the order given, so callers pass episodes in their
// stable listing order.
func Build(pc *config.Podcast, items []Item) ([]byte, error) {
	explicit := "no"
	if pc.Explicit {
		explicit = "yes"
	}

	ch := channel{
		Title:       pc.Title,
		Link:        pc.Website,
		Description: pc.Description,
		Language:    pc.Language,
		Author:      pc.Author,
		Owner:       owner{Name: pc.Author, Email: pc.Email},
		Category:    catTag{Text: pc.Category},
		Explicit:    explicit,
	}
	if pc.CoverURL != "" {
		ch.Image = &imgTag{Href: pc.CoverURL}
	}

	for _, it := range items {
		entry := item{
			GUID:        guid{IsPermaLink: "false", Value: it.GUID},
			Title:       it.Title,
			Description: it.Description,
			Enclosure: enclosure{
				URL:    it.AudioURL,
				Length: it.AudioBytes,
				Type:   "audio/mpeg",
			},
			PubDate:     it.Published.Format(time.RFC1123Z),
			EpisodeType: it.EpisodeType,
			Duration:    it.Duration,
		}
		if it.Number > 0 {
			entry.Episode = fmt.Sprintf("%d", it.Number)
		}
		if it.Season > 0 {
			entry.Season = fmt.Sprintf("%d", it.Season)
		}
		if it.ShowNotes != "" {
			entry.Content = &cdata{Value: it.ShowNotes}
		}
		ch.Items = append(ch.Items, entry)
	}

	doc := rssDoc{
		Version: "2.0",
		ITunes:  "http://www.itunes.com/dtds/podcast-1.0.dtd",
		Content: "http://purl.org/rss/1.0/modules/content/",
		Channel: ch,
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render feed: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
