package media

import (
	"fmt"
	"strings"
)

// Platform identifies the service a source URL belongs to.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

var allPlatforms = []Platform{
	PlatformYouTube,
	PlatformInstagram,
	PlatformTikTok,
}

// Platforms returns every supported platform in display order.
func Platforms() []Platform {
	out := make([]Platform, len(allPlatforms))
	copy(out, allPlatforms)
	return out
}

// ParsePlatform converts a command or tag into a Platform.
func ParsePlatform(value string) (Platform, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.TrimPrefix(normalized, "/")
	switch normalized {
	case "youtube", "yt":
		return PlatformYouTube, nil
	case "instagram", "ig", "insta":
		return PlatformInstagram, nil
	case "tiktok", "tt":
		return PlatformTikTok, nil
	default:
		return "", fmt.Errorf("unsupported platform %q", value)
	}
}

func (p Platform) String() string {
	return string(p)
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	for _, candidate := range allPlatforms {
		if p == candidate {
			return true
		}
	}
	return false
}

// Quality is the coarse resolution tier a user can pick.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

var qualityHeights = map[Quality]int{
	QualityLow:    360,
	QualityMedium: 720,
	QualityHigh:   1080,
}

// Qualities returns the tiers from lowest to highest.
func Qualities() []Quality {
	return []Quality{QualityLow, QualityMedium, QualityHigh}
}

// ParseQuality accepts tier names ("medium") or resolution labels ("720p", "720").
// An empty value selects the medium tier.
func ParseQuality(value string) (Quality, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "":
		return QualityMedium, nil
	case "low", "360", "360p":
		return QualityLow, nil
	case "medium", "720", "720p":
		return QualityMedium, nil
	case "high", "1080", "1080p":
		return QualityHigh, nil
	default:
		return "", fmt.Errorf("unsupported quality %q", value)
	}
}

// Height returns the target vertical resolution for the tier.
func (q Quality) Height() int {
	if h, ok := qualityHeights[q]; ok {
		return h
	}
	return qualityHeights[QualityMedium]
}

// Label renders the tier as a resolution label such as "720p".
func (q Quality) Label() string {
	return fmt.Sprintf("%dp", q.Height())
}
