package models

import "strings"

// Generator platform identifiers.
const (
	PlatformYouTube        = "youtube"
	PlatformYouTubeShorts  = "youtube_shorts"
	PlatformTikTok         = "tiktok"
	PlatformInstagramReels = "instagram_reels"
	PlatformDouyin         = "douyin"
	PlatformBilibili       = "bilibili"
)

// PlatformMap maps platform provider identifiers to generator platforms.
type PlatformMap struct {
	providers map[string]string
	supported map[string]bool
	parents   map[string]string
}

// DefaultPlatformMap is the provider table used by the bridge.
var DefaultPlatformMap = NewPlatformMap(
	map[string]string{
		"youtube":              PlatformYouTube,
		"youtube-channel":      PlatformYouTubeShorts,
		"tiktok":               PlatformTikTok,
		"instagram":            PlatformInstagramReels,
		"instagram-standalone": PlatformInstagramReels,
		"douyin":               PlatformDouyin,
		"bilibili":             PlatformBilibili,
	},
	[]string{
		PlatformYouTube, PlatformYouTubeShorts, PlatformTikTok,
		PlatformInstagramReels, PlatformDouyin, PlatformBilibili,
	},
	map[string]string{PlatformYouTubeShorts: PlatformYouTube},
)

// NewPlatformMap builds an immutable [PlatformMap]. The inputs are copied.
func NewPlatformMap(providers map[string]string, supported []string, parents map[string]string) *PlatformMap {
	m := &PlatformMap{
		providers: make(map[string]string, len(providers)),
		supported: make(map[string]bool, len(supported)),
		parents:   make(map[string]string, len(parents)),
	}
	for k, v := range providers {
		m.providers[strings.ToLower(k)] = v
	}
	for _, p := range supported {
		m.supported[p] = true
	}
	for k, v := range parents {
		m.parents[k] = v
	}
	return m
}

// PlatformFor returns the generator platform for a provider identifier.
//
// The second result is false when the provider is unknown or maps to an unsupported platform.
func (m *PlatformMap) PlatformFor(provider string) (string, bool) {
	platform, ok := m.providers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok || !m.supported[platform] {
		return "", false
	}
	return platform, true
}

// Supports reports whether a provider is eligible for short-video sync.
func (m *PlatformMap) Supports(provider string) bool {
	_, ok := m.PlatformFor(provider)
	return ok
}

// Parent returns the parent platform of a sub-variant, if any.
func (m *PlatformMap) Parent(platform string) (string, bool) {
	p, ok := m.parents[platform]
	return p, ok
}
