package info

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/MDigiTechnology/Video-Downloader/internal/model"
)

// Post page client defaults
const (
	DefaultInstagramBaseURL = "https://www.instagram.com"
	DefaultInstagramTimeout = 10 * time.Second
	maxPageBytes            = 2 << 20
	browserUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var errNoOpenGraph = errors.New("page has no open graph metadata")

// OpenGraphClient reads the Open Graph tags of public Instagram post pages.
// Calls go through a circuit breaker so a blocked origin is not hammered.
type OpenGraphClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewOpenGraphClient creates a client for baseURL
func NewOpenGraphClient(baseURL string, timeout time.Duration) *OpenGraphClient {
	if baseURL == "" {
		baseURL = DefaultInstagramBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultInstagramTimeout
	}

	return &OpenGraphClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "instagram-post-page",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}),
	}
}

// Post implements PostLookup
func (c *OpenGraphClient) Post(ctx context.Context, shortcode string) (*Info, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchTags(ctx, shortcode)
	})
	if err != nil {
		return nil, err
	}
	return infoFromTags(result.(map[string]string)), nil
}

func (c *OpenGraphClient) fetchTags(ctx context.Context, shortcode string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/p/%s/", c.baseURL, shortcode), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post page returned status %d", resp.StatusCode)
	}

	tags := parseOpenGraph(io.LimitReader(resp.Body, maxPageBytes))
	if tags["og:title"] == "" && tags["og:image"] == "" {
		return nil, errNoOpenGraph
	}
	return tags, nil
}

// parseOpenGraph collects og:* meta tags until the end of <head>
func parseOpenGraph(r io.Reader) map[string]string {
	tags := make(map[string]string)
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tags
		case html.EndTagToken:
			if tok := z.Token(); tok.DataAtom == atom.Head {
				return tags
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.Meta {
				continue
			}
			var property, content string
			for _, attr := range tok.Attr {
				switch attr.Key {
				case "property", "name":
					property = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if strings.HasPrefix(property, "og:") {
				if _, seen := tags[property]; !seen {
					tags[property] = content
				}
			}
		}
	}
}

func infoFromTags(tags map[string]string) *Info {
	info := &Info{
		Title:       tags["og:title"],
		Thumbnail:   tags["og:image"],
		Description: tags["og:description"],
		Platform:    model.PlatformInstagram.DisplayName(),
		IsVideo:     model.Ptr(tags["og:video"] != "" || strings.HasPrefix(tags["og:type"], "video")),
	}

	// Titles look like "<user> on Instagram: <caption>"
	if author, _, ok := strings.Cut(info.Title, " on Instagram"); ok && author != "" {
		info.Author = author
		info.Title = "Instagram post by " + author
	}
	if info.Title == "" {
		info.Title = "Instagram Content"
	}
	if info.Description == "" {
		info.Description = NoDescription
	}
	return info
}
