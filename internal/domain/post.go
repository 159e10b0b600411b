package domain

import "time"

// Status is the verification state of a case. Unknown upstream codes
// collapse to StatusNotStarted.
type Status string

const (
	StatusVerified     Status = "Verified"
	StatusFalse        Status = "False"
	StatusMisleading   Status = "Misleading"
	StatusNotStarted   Status = "NotStarted"
	StatusInconclusive Status = "Inconclusive"
	StatusInProgress   Status = "InProgress"
)

// Platform is the social network a case was observed on.
type Platform string

const (
	PlatformFacebook  Platform = "Facebook"
	PlatformTwitterX  Platform = "Twitter/X"
	PlatformTikTok    Platform = "TikTok"
	PlatformInstagram Platform = "Instagram"
	PlatformYouTube   Platform = "YouTube"
	PlatformWhatsApp  Platform = "WhatsApp"
	PlatformTelegram  Platform = "Telegram"
	PlatformWeb       Platform = "Web"
)

// MediaFormat is the media type of the offending content.
type MediaFormat string

const (
	FormatImage MediaFormat = "Image"
	FormatVideo MediaFormat = "Video"
	FormatText  MediaFormat = "Text"
)

// Post is the canonical, persisted representation of one fact-check case.
// ExternalID is the upstream's stable numeric identifier and never changes;
// every other field is replaced wholesale on each sync.
type Post struct {
	ID          int64       `db:"id" json:"id"`
	ExternalID  int64       `db:"external_id" json:"external_id"`
	CheckID     string      `db:"check_id" json:"check_id"`
	Claim       string      `db:"claim" json:"claim"`
	Status      Status      `db:"status" json:"status"`
	URL         string      `db:"url" json:"url"`
	SubmittedAt time.Time   `db:"submitted_at" json:"submitted_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
	Platform    Platform    `db:"platform" json:"platform"`
	MediaFormat MediaFormat `db:"media_format" json:"media_format"`

	Reactions int `db:"reactions" json:"reactions"`
	Comments  int `db:"comments" json:"comments"`
	Shares    int `db:"shares" json:"shares"`
	Views     int `db:"views" json:"views"`

	Tags []string `json:"tags"`

	CaseDetails
}

// CaseDetails holds the optional custom-schema answers attached to a case.
// Each field is set only when the corresponding labeled task exists upstream.
type CaseDetails struct {
	CreatedWithAI        *string `db:"created_with_ai" json:"created_with_ai,omitempty"`
	AttacksCandidate     *string `db:"attacks_candidate" json:"attacks_candidate,omitempty"`
	AttackedCandidate    *string `db:"attacked_candidate" json:"attacked_candidate,omitempty"`
	AttacksElectoralBody *string `db:"attacks_electoral_body" json:"attacks_electoral_body,omitempty"`
	ElectoralNarrative   *string `db:"electoral_narrative" json:"electoral_narrative,omitempty"`
	CaseType             *string `db:"case_type" json:"case_type,omitempty"`
	DisinfoNarrative     *string `db:"disinfo_narrative" json:"disinfo_narrative,omitempty"`
	ImitatesOutlet       *string `db:"imitates_outlet" json:"imitates_outlet,omitempty"`
	ImitatedOutlet       *string `db:"imitated_outlet" json:"imitated_outlet,omitempty"`
	RumorType            *string `db:"rumor_type" json:"rumor_type,omitempty"`
	PromotedRumor        *string `db:"promoted_rumor" json:"promoted_rumor,omitempty"`
}
