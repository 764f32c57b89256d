package platform

import (
	"regexp"
	"strings"

	"github.com/MDigiTechnology/Video-Downloader/internal/model"
)

// PlatformAuto asks for detection from the URL
const PlatformAuto = "auto"

// Host fragments recognized per platform
var platformDomains = []struct {
	platform model.Platform
	domains  []string
}{
	{model.PlatformYouTube, []string{"youtube.com", "youtu.be"}},
	{model.PlatformInstagram, []string{"instagram.com", "instagr.am"}},
	{model.PlatformFacebook, []string{"facebook.com", "fb.com", "fb.watch"}},
}

var instagramShortcodeRe = regexp.MustCompile(`instagram\.com/(?:p|reel|tv)/([^/?]+)`)

// DetectPlatform matches the URL against known domains
func DetectPlatform(url string) (model.Platform, bool) {
	lower := strings.ToLower(url)
	for _, entry := range platformDomains {
		for _, domain := range entry.domains {
			if strings.Contains(lower, domain) {
				return entry.platform, true
			}
		}
	}
	return "", false
}

// ResolvePlatform turns a requested platform name into a platform, detecting
// it from the URL for "auto" or an empty name. known is false for names
// outside the supported set; detected is false when auto-detection failed.
func ResolvePlatform(name, url string) (platform model.Platform, known bool, detected bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == PlatformAuto {
		p, ok := DetectPlatform(url)
		return p, true, ok
	}

	switch p := model.Platform(name); p {
	case model.PlatformYouTube, model.PlatformInstagram, model.PlatformFacebook:
		return p, true, true
	default:
		return "", false, true
	}
}

// InstagramShortcode extracts the post shortcode from a post, reel or tv URL
func InstagramShortcode(url string) (string, bool) {
	match := instagramShortcodeRe.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}
