// internal/platform/platform.go

// Package platform maps content URLs to provider-native identifiers and
// infers the owning platform from URL host patterns. Everything here is a
// pure function over the URL string; no network access.
package platform

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/valpere/KOLMetrics/pkg/types"
)

// youtubeIDPattern covers the common YouTube URL shapes: watch query
// parameter, /videos/ path, embed path, youtu.be short links and shorts.
// Identifier tokens are alphanumeric plus _ and -, at least 6 characters.
var youtubeIDPattern = regexp.MustCompile(`(?:v=|/videos/|embed/|youtu\.be/|/shorts/)([A-Za-z0-9_-]{6,})`)

// ExtractYouTubeID pulls the video identifier out of a YouTube URL.
// Returns false when no recognized shape matches; never fails otherwise.
func ExtractYouTubeID(rawURL string) (string, bool) {
	m := youtubeIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// hostPlatforms maps host suffixes to platforms for rows whose platform
// column is missing or empty.
var hostPlatforms = []struct {
	suffix   string
	platform types.Platform
}{
	{"youtube.com", types.PlatformYouTube},
	{"youtu.be", types.PlatformYouTube},
	{"instagram.com", types.PlatformInstagram},
	{"tiktok.com", types.PlatformTikTok},
}

// Infer guesses the platform from the URL host. Returns PlatformUnknown
// when the host matches no known pattern or the URL does not parse.
func Infer(rawURL string) types.Platform {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return types.PlatformUnknown
	}

	host := strings.ToLower(u.Hostname())
	for _, hp := range hostPlatforms {
		if host == hp.suffix || strings.HasSuffix(host, "."+hp.suffix) {
			return hp.platform
		}
	}
	return types.PlatformUnknown
}

// Resolve returns the row's declared platform when present, otherwise the
// platform inferred from the URL host.
func Resolve(declared, rawURL string) types.Platform {
	if p := types.ParsePlatform(declared); p != types.PlatformUnknown {
		return p
	}
	return Infer(rawURL)
}
