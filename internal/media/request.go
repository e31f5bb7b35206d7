package media

import (
	"fmt"
	"strings"

	"github.com/goware/urlx"
)

// Request is a single user's ask for one video. It only lives for the
// duration of one pass through the request flow.
type Request struct {
	UserID   string
	Platform Platform
	URL      string
	Quality  Quality
}

// NewRequest validates and normalizes the raw inputs.
func NewRequest(userID string, platform Platform, rawURL string, quality Quality) (Request, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Request{}, fmt.Errorf("user id is required")
	}
	if !platform.Valid() {
		return Request{}, fmt.Errorf("unsupported platform %q", platform)
	}
	if _, ok := qualityHeights[quality]; !ok {
		return Request{}, fmt.Errorf("unsupported quality %q", quality)
	}
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return Request{}, err
	}
	if !MatchesPlatform(platform, normalized) {
		return Request{}, fmt.Errorf("url %q does not belong to %s", normalized, platform)
	}
	return Request{UserID: userID, Platform: platform, URL: normalized, Quality: quality}, nil
}

// NormalizeURL parses a user-supplied link and returns its canonical form.
// Two spellings of the same link normalize to the same string, which keeps
// cache keys stable.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is empty")
	}
	parsed, err := urlx.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" || !strings.Contains(parsed.Hostname(), ".") {
		return "", fmt.Errorf("url %q has no usable host", raw)
	}
	normalized, err := urlx.Normalize(parsed)
	if err != nil {
		return "", fmt.Errorf("normalize url: %w", err)
	}
	return normalized, nil
}

// DetectPlatform guesses the platform from a URL host.
func DetectPlatform(rawURL string) (Platform, bool) {
	for _, p := range allPlatforms {
		if MatchesPlatform(p, rawURL) {
			return p, true
		}
	}
	return "", false
}

// MatchesPlatform reports whether the URL host belongs to the platform.
// TikTok links may point straight at its CDN hosts.
func MatchesPlatform(p Platform, rawURL string) bool {
	parsed, err := urlx.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	switch p {
	case PlatformYouTube:
		return hostIn(host, "youtube.com", "youtu.be", "youtube-nocookie.com")
	case PlatformInstagram:
		return hostIn(host, "instagram.com", "instagr.am")
	case PlatformTikTok:
		return hostIn(host, "tiktok.com", "tiktokv.com", "tiktokcdn.com", "tiktokcdn-us.com", "tiktokcdn-eu.com")
	default:
		return false
	}
}

func hostIn(host string, domains ...string) bool {
	for _, domain := range domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
