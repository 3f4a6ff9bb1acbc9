package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"pod-tracker/internal/models"
)

const userAgent = "pod-tracker/1.0"

// Parser fetches podcast feeds and converts their items into drafts.
type Parser struct {
	client *http.Client
}

// NewParser wires an HTTP client; a nil client gets a 30 second timeout.
func NewParser(client *http.Client) *Parser {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Parser{client: client}
}

// ParseDrafts downloads feedURL and returns one draft per feed item, in feed
// order. Items are not filtered here; the catalog decides what to keep.
func (p *Parser) ParseDrafts(ctx context.Context, feedURL string) ([]models.EpisodeDraft, error) {
	fp := gofeed.NewParser()
	fp.Client = p.client
	fp.UserAgent = userAgent

	f, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}

	drafts := make([]models.EpisodeDraft, 0, len(f.Items))
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		drafts = append(drafts, draftFromItem(item))
	}
	return drafts, nil
}

func draftFromItem(item *gofeed.Item) models.EpisodeDraft {
	draft := models.EpisodeDraft{
		Title:       item.Title,
		Description: plainText(firstNonEmpty(item.Description, item.Content)),
		ReleaseDate: firstNonEmpty(item.Published, item.Updated),
		ImageURL:    itemImage(item),
		Guests:      authors(item),
		Tags:        tags(item),
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			draft.AudioURL = enc.URL
			break
		}
	}
	if item.ITunesExt != nil {
		draft.Duration = item.ITunesExt.Duration
	}
	return draft
}

func itemImage(item *gofeed.Item) *string {
	var url string
	switch {
	case item.ITunesExt != nil && item.ITunesExt.Image != "":
		url = item.ITunesExt.Image
	case item.Image != nil:
		url = item.Image.URL
	}
	if url == "" {
		return nil
	}
	return &url
}

func authors(item *gofeed.Item) []string {
	var names []string
	for _, person := range item.Authors {
		if person != nil && strings.TrimSpace(person.Name) != "" {
			names = append(names, strings.TrimSpace(person.Name))
		}
	}
	return names
}

// tags merges item categories with iTunes keywords, dropping repeats.
func tags(item *gofeed.Item) []string {
	raw := append([]string(nil), item.Categories...)
	if item.ITunesExt != nil && item.ITunesExt.Keywords != "" {
		raw = append(raw, strings.Split(item.ITunesExt.Keywords, ",")...)
	}

	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(t)]; ok {
			continue
		}
		seen[strings.ToLower(t)] = struct{}{}
		out = append(out, t)
	}
	return out
}

// plainText strips markup from show notes and collapses whitespace.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
