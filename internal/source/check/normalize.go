package check

import (
	"strings"

	"factsync/internal/domain"
)

// Normalizers for the free-form values journalists type into Check. All of
// them are total: unrecognized input is passed through (or defaulted),
// never rejected.

// statusTable maps upstream status codes to the closed Status enum.
// Lookup is case-insensitive; anything missing is NotStarted.
var statusTable = map[string]domain.Status{
	"verified":     domain.StatusVerified,
	"false":        domain.StatusFalse,
	"misleading":   domain.StatusMisleading,
	"unverified":   domain.StatusNotStarted,
	"inconclusive": domain.StatusInconclusive,
	"in_progress":  domain.StatusInProgress,
	"undetermined": domain.StatusNotStarted,
}

func mapStatus(code string) domain.Status {
	if s, ok := statusTable[strings.ToLower(code)]; ok {
		return s
	}
	return domain.StatusNotStarted
}

// platformRule pairs a substring pattern with its platform. Rules are
// evaluated in order; the first match wins.
type platformRule struct {
	pattern  string
	platform domain.Platform
}

// platformFromURL recognizes a platform from a post URL. Returns "" when
// nothing matches so the caller keeps its prior default.
func platformFromURL(rawURL string) domain.Platform {
	if rawURL == "" {
		return ""
	}
	url := strings.ToLower(rawURL)
	rules := []platformRule{
		{"facebook.com", domain.PlatformFacebook},
		{"twitter.com", domain.PlatformTwitterX},
		{"x.com", domain.PlatformTwitterX},
		{"tiktok.com", domain.PlatformTikTok},
		{"instagram.com", domain.PlatformInstagram},
		{"youtube.com", domain.PlatformYouTube},
		{"whatsapp", domain.PlatformWhatsApp},
		{"telegram", domain.PlatformTelegram},
	}
	for _, r := range rules {
		if strings.Contains(url, r.pattern) {
			return r.platform
		}
	}
	return ""
}

// platformFromText recognizes a platform from a metadata provider or a
// task answer ("red social" / "plataforma").
func platformFromText(text string) domain.Platform {
	if text == "" {
		return ""
	}
	t := strings.ToLower(text)
	rules := []platformRule{
		{"facebook", domain.PlatformFacebook},
		{"twitter", domain.PlatformTwitterX},
		{"x ", domain.PlatformTwitterX},
		{"tiktok", domain.PlatformTikTok},
		{"instagram", domain.PlatformInstagram},
		{"youtube", domain.PlatformYouTube},
		{"whatsapp", domain.PlatformWhatsApp},
		{"telegram", domain.PlatformTelegram},
	}
	for _, r := range rules {
		if strings.Contains(t, r.pattern) {
			return r.platform
		}
	}
	return ""
}

// videoExtensions and imageExtensions drive the URL fallback of format
// detection. The metadata-declared type always takes precedence.
var (
	videoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

// mapFormat determines the media format. metadataType, when present, wins
// over URL heuristics; everything else is Text.
func mapFormat(mediaURL, metadataType string) domain.MediaFormat {
	switch strings.ToLower(metadataType) {
	case "video":
		return domain.FormatVideo
	case "image":
		return domain.FormatImage
	}

	if mediaURL == "" {
		return domain.FormatText
	}

	url := strings.ToLower(mediaURL)
	if strings.Contains(url, "youtube.com") || strings.Contains(url, "tiktok.com") || strings.Contains(url, "video") || hasAnySuffix(url, videoExtensions) {
		return domain.FormatVideo
	}
	if strings.Contains(url, "image") || hasAnySuffix(url, imageExtensions) {
		return domain.FormatImage
	}
	return domain.FormatText
}

// formatFromText recognizes a format from a free-text task answer. Returns
// "" when nothing matches.
func formatFromText(text string) domain.MediaFormat {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "imagen"), strings.Contains(t, "image"):
		return domain.FormatImage
	case strings.Contains(t, "video"), strings.Contains(t, "audiovisual"):
		return domain.FormatVideo
	case strings.Contains(t, "texto"), strings.Contains(t, "text"):
		return domain.FormatText
	}
	return ""
}

// normalizeYesNo maps a human-entered yes/no answer to "Yes"/"No".
// Unrecognized answers are preserved verbatim rather than dropped.
func normalizeYesNo(value string) *string {
	if value == "" {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.Contains(v, "sí"), strings.Contains(v, "si"), v == "yes":
		return strPtr("Yes")
	case strings.Contains(v, "no"):
		return strPtr("No")
	}
	return strPtr(value)
}

// normalizeCaseType maps the "es caso es:" answer to its canonical value.
func normalizeCaseType(value string) *string {
	if value == "" {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.Contains(v, "desinformación"), strings.Contains(v, "desinformacion"):
		return strPtr("Disinformation")
	case strings.Contains(v, "rumor"):
		return strPtr("Rumor")
	}
	return strPtr(value)
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func strPtr(s string) *string {
	return &s
}
