// Package info looks up media metadata without downloading the media.
// Each platform has its own strategy; Instagram degrades through the
// extractor, the public post page and finally a fixed descriptor.
package info

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/MDigiTechnology/Video-Downloader/internal/extractor"
	"github.com/MDigiTechnology/Video-Downloader/internal/model"
	"github.com/MDigiTechnology/Video-Downloader/internal/platform"
)

var (
	ErrMissingURL          = errors.New("url is required")
	ErrInvalidInstagramURL = errors.New("invalid instagram url")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Defaults used when the source omits a field
const (
	UnknownDuration      = "Unknown duration"
	UnknownAuthor        = "Unknown creator"
	NoDescription        = "No description available"
	InstagramThumbFormat = "https://www.instagram.com/p/%s/media/?size=l"
)

// FetchError is returned when the primary lookup of a platform without a
// fallback fails
type FetchError struct {
	Platform model.Platform
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch %s video info: %v", e.Platform.DisplayName(), e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Info is the descriptor returned to clients
type Info struct {
	Title        string          `json:"title"`
	Thumbnail    string          `json:"thumbnail,omitempty"`
	Duration     string          `json:"duration,omitempty"`
	Description  string          `json:"description,omitempty"`
	Author       string          `json:"author,omitempty"`
	Platform     string          `json:"platform"`
	IsVideo      *bool           `json:"is_video,omitempty"`
	Note         string          `json:"note,omitempty"`
	Alternatives []string        `json:"alternatives,omitempty"`
	Playlist     *model.Playlist `json:"playlist,omitempty"`
}

// PlaylistParser lists a playlist. platform.PlaylistParser satisfies it.
type PlaylistParser interface {
	ParsePlaylist(ctx context.Context, url string) (*model.Playlist, error)
}

// PostLookup is the secondary Instagram strategy
type PostLookup interface {
	Post(ctx context.Context, shortcode string) (*Info, error)
}

// Fetcher dispatches lookups per platform
type Fetcher struct {
	extractor extractor.Extractor
	playlists PlaylistParser
	instagram PostLookup
	log       logrus.FieldLogger
}

// NewFetcher creates a fetcher. playlists and instagram may be nil.
func NewFetcher(ex extractor.Extractor, playlists PlaylistParser, instagram PostLookup, log logrus.FieldLogger) *Fetcher {
	return &Fetcher{extractor: ex, playlists: playlists, instagram: instagram, log: log}
}

// Fetch returns the descriptor for rawURL. platformName may be "auto".
func (f *Fetcher) Fetch(ctx context.Context, rawURL, platformName string) (*Info, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrMissingURL
	}

	p, known, detected := platform.ResolvePlatform(platformName, rawURL)
	if !known || !detected {
		return nil, ErrUnsupportedPlatform
	}

	switch p {
	case model.PlatformYouTube:
		return f.youtube(ctx, rawURL)
	case model.PlatformInstagram:
		return f.instagramInfo(ctx, rawURL)
	case model.PlatformFacebook:
		return facebookInfo(), nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}

func (f *Fetcher) youtube(ctx context.Context, rawURL string) (*Info, error) {
	if f.playlists != nil && platform.IsPlaylistURL(rawURL) {
		playlist, err := f.playlists.ParsePlaylist(ctx, rawURL)
		if err != nil {
			return nil, &FetchError{Platform: model.PlatformYouTube, Err: err}
		}
		return &Info{
			Title:       playlist.Title,
			Description: fmt.Sprintf("%d videos", playlist.TotalVideos),
			Platform:    model.PlatformYouTube.DisplayName(),
			Playlist:    playlist,
		}, nil
	}

	media, err := f.extractor.Extract(ctx, rawURL)
	if err != nil {
		return nil, &FetchError{Platform: model.PlatformYouTube, Err: err}
	}
	return fromMedia(media, model.PlatformYouTube, "YouTube Video"), nil
}

func (f *Fetcher) instagramInfo(ctx context.Context, rawURL string) (*Info, error) {
	shortcode, ok := platform.InstagramShortcode(rawURL)
	if !ok {
		return nil, ErrInvalidInstagramURL
	}
	logger := f.log.WithField("shortcode", shortcode)

	media, err := f.extractor.Extract(ctx, rawURL)
	if err == nil {
		info := fromMedia(media, model.PlatformInstagram, "Instagram Video")
		info.IsVideo = model.Ptr(true)
		return info, nil
	}
	logger.WithError(err).Debug("extractor lookup failed, trying post page")

	if f.instagram != nil {
		info, err := f.instagram.Post(ctx, shortcode)
		if err == nil {
			return info, nil
		}
		logger.WithError(err).Debug("post page lookup failed")
	}

	return &Info{
		Title:     "Instagram Content",
		Platform:  model.PlatformInstagram.DisplayName(),
		Note:      "Limited information available without authentication",
		Thumbnail: fmt.Sprintf(InstagramThumbFormat, shortcode),
	}, nil
}

func facebookInfo() *Info {
	return &Info{
		Title:    "Facebook Video",
		Platform: model.PlatformFacebook.DisplayName(),
		Note:     "Facebook videos require alternative download methods",
		Alternatives: []string{
			"Use a browser extension",
			"Try an online service",
			"Use the Facebook app",
		},
	}
}

func fromMedia(media *extractor.Media, p model.Platform, defaultTitle string) *Info {
	info := &Info{
		Title:       media.Title,
		Thumbnail:   media.Thumbnail,
		Duration:    FormatDuration(media.Duration),
		Description: media.Description,
		Author:      media.Uploader,
		Platform:    p.DisplayName(),
	}
	if info.Title == "" {
		info.Title = defaultTitle
	}
	if info.Description == "" {
		info.Description = NoDescription
	}
	if info.Author == "" {
		info.Author = UnknownAuthor
	}
	return info
}

// FormatDuration renders seconds as "MM minutes, SS seconds"
func FormatDuration(seconds float64) string {
	total := int(seconds)
	if total <= 0 {
		return UnknownDuration
	}
	return fmt.Sprintf("%02d minutes, %02d seconds", total/60, total%60)
}
