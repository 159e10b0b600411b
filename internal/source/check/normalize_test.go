package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsync/internal/domain"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		code string
		want domain.Status
	}{
		{"verified", domain.StatusVerified},
		{"FALSE", domain.StatusFalse},
		{"Misleading", domain.StatusMisleading},
		{"unverified", domain.StatusNotStarted},
		{"undetermined", domain.StatusNotStarted},
		{"inconclusive", domain.StatusInconclusive},
		{"in_progress", domain.StatusInProgress},
		{"", domain.StatusNotStarted},
		{"something-new", domain.StatusNotStarted},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapStatus(tt.code), "code %q", tt.code)
	}
}

func TestPlatformFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want domain.Platform
	}{
		{"https://www.facebook.com/page/posts/1", domain.PlatformFacebook},
		{"https://twitter.com/user/status/1", domain.PlatformTwitterX},
		{"https://x.com/user/status/1", domain.PlatformTwitterX},
		{"https://www.tiktok.com/@user/video/1", domain.PlatformTikTok},
		{"https://www.instagram.com/p/abc/", domain.PlatformInstagram},
		{"https://www.youtube.com/watch?v=abc", domain.PlatformYouTube},
		{"https://chat.whatsapp.com/invite", domain.PlatformWhatsApp},
		{"https://t.me/telegram_channel", domain.PlatformTelegram},
		{"https://example.com/news", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, platformFromURL(tt.url), "url %q", tt.url)
	}
}

func TestMapFormat(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		metaType string
		want     domain.MediaFormat
	}{
		{"metadata video wins over image url", "https://x.com/pic.jpg", "video", domain.FormatVideo},
		{"metadata image wins", "https://x.com/clip.mp4", "image", domain.FormatImage},
		{"video extension", "https://cdn.example.com/clip.mp4", "", domain.FormatVideo},
		{"youtube url", "https://youtube.com/watch?v=1", "", domain.FormatVideo},
		{"image extension", "https://cdn.example.com/photo.png", "", domain.FormatImage},
		{"plain url is text", "https://example.com/article", "", domain.FormatText},
		{"empty is text", "", "", domain.FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapFormat(tt.url, tt.metaType))
		})
	}
}

func TestNormalizeYesNo(t *testing.T) {
	yes := normalizeYesNo("Sí")
	require.NotNil(t, yes)
	assert.Equal(t, "Yes", *yes)

	no := normalizeYesNo("No, para nada")
	require.NotNil(t, no)
	assert.Equal(t, "No", *no)

	verbatim := normalizeYesNo("tal vez")
	require.NotNil(t, verbatim)
	assert.Equal(t, "tal vez", *verbatim)

	assert.Nil(t, normalizeYesNo(""))
}

func TestNormalizeCaseType(t *testing.T) {
	disinfo := normalizeCaseType("Es desinformación")
	require.NotNil(t, disinfo)
	assert.Equal(t, "Disinformation", *disinfo)

	rumor := normalizeCaseType("un rumor")
	require.NotNil(t, rumor)
	assert.Equal(t, "Rumor", *rumor)

	verbatim := normalizeCaseType("otro")
	require.NotNil(t, verbatim)
	assert.Equal(t, "otro", *verbatim)

	assert.Nil(t, normalizeCaseType(""))
}
