package check

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"factsync/internal/domain"
)

// secondsThreshold is 2022-01-01T00:00:00Z in epoch seconds. Numeric
// timestamps above it are treated as seconds, below as milliseconds. The
// upstream emits both units inconsistently for the same field; this is a
// best-effort cutoff, not a guarantee, and historical timestamps predating
// it would be misclassified.
const secondsThreshold = 1640995200

// Transformer converts raw Check API media nodes into canonical posts.
// Transform never fails: malformed fields degrade to documented defaults
// and processing continues.
type Transformer struct {
	teamSlug string
	now      func() time.Time
	logger   *slog.Logger
}

// NewTransformer creates a Transformer. The team slug is used to build the
// case page URL for medias without a URL of their own.
func NewTransformer(teamSlug string, logger *slog.Logger) *Transformer {
	return &Transformer{
		teamSlug: teamSlug,
		now:      time.Now,
		logger:   logger,
	}
}

// TransformAll converts a batch of nodes.
func (t *Transformer) TransformAll(nodes []MediaNode) []domain.Post {
	posts := make([]domain.Post, 0, len(nodes))
	for _, node := range nodes {
		posts = append(posts, t.Transform(node))
	}
	return posts
}

// Transform maps one raw media node to a canonical Post.
func (t *Transformer) Transform(node MediaNode) domain.Post {
	now := t.now().UTC()

	submittedAt := parseUpstreamTime(node.CreatedAt, now)
	updatedAt := parseUpstreamTime(node.UpdatedAt, submittedAt)

	post := domain.Post{
		ExternalID:  node.DBID,
		CheckID:     node.ID,
		Claim:       t.resolveClaim(node),
		Status:      mapStatus(node.LastStatus),
		URL:         t.resolveURL(node),
		SubmittedAt: submittedAt,
		UpdatedAt:   updatedAt,
		Platform:    domain.PlatformWeb,
		MediaFormat: domain.FormatText,
		Tags:        resolveTags(node),
	}

	// URL and metadata heuristics set the platform/format baseline; a
	// matching labeled task may still override below. A recognized embed
	// provider outranks the URL: a facebook.com share of a YouTube embed
	// is a YouTube case.
	mediaURL := node.URL
	var metaType string
	if p := platformFromURL(mediaURL); p != "" {
		post.Platform = p
	}
	if node.Media != nil {
		if node.Media.URL != "" {
			mediaURL = node.Media.URL
			if p := platformFromURL(mediaURL); p != "" {
				post.Platform = p
			}
		}
		meta := parseMetadata(node.Media.Metadata)
		metaType = meta.Type
		if p := platformFromText(meta.Provider); p != "" {
			post.Platform = p
		}
	}
	post.MediaFormat = mapFormat(mediaURL, metaType)

	t.scanTasks(node, &post)

	return post
}

// resolveClaim picks the first non-empty display text.
func (t *Transformer) resolveClaim(node MediaNode) string {
	if node.Title != "" {
		return node.Title
	}
	if node.Description != "" {
		return node.Description
	}
	if node.Quote != "" {
		return node.Quote
	}
	if node.ClaimDescription != nil && node.ClaimDescription.Description != "" {
		return node.ClaimDescription.Description
	}
	return fmt.Sprintf("Media %d", node.DBID)
}

func (t *Transformer) resolveURL(node MediaNode) string {
	if node.URL != "" {
		return node.URL
	}
	return fmt.Sprintf("https://checkmedia.org/%s/media/%d", t.teamSlug, node.DBID)
}

func resolveTags(node MediaNode) []string {
	var tags []string
	for _, edge := range node.Tags.Edges {
		// Prefer the human-readable label over the raw tag code.
		if edge.Node.TagText != "" {
			tags = append(tags, edge.Node.TagText)
		} else if edge.Node.Tag != "" {
			tags = append(tags, edge.Node.Tag)
		}
	}
	return tags
}

// scanTasks walks the task list once, testing each label against two
// independent families: the engagement-counter family (substring match)
// and the case-schema family (exact match). A label can belong to both.
//
// Counter semantics: a successful positive parse overwrites the counter.
// When several tasks match the same family the last one scanned wins.
// Summing across tasks double-counted historical answers to the same
// question and must not come back.
func (t *Transformer) scanTasks(node MediaNode, post *domain.Post) {
	for _, edge := range node.Tasks.Edges {
		task := edge.Node
		label := strings.ToLower(task.Label)
		value := task.FirstResponseValue

		switch {
		case containsAny(label, "reacciones", "reactions", "likes"):
			if n := parseCounter(value); n > 0 {
				post.Reactions = n
			}
		case containsAny(label, "comentarios", "comments"):
			if n := parseCounter(value); n > 0 {
				post.Comments = n
			}
		case containsAny(label, "compartidos", "compartir", "shares"):
			if n := parseCounter(value); n > 0 {
				post.Shares = n
			}
		case containsAny(label, "visualizaciones", "views", "vistas"):
			if n := parseCounter(value); n > 0 {
				post.Views = n
			}
		case containsAny(label, "red social", "plataforma", "platform"):
			if p := platformFromText(value); p != "" {
				post.Platform = p
			}
		case containsAny(label, "formato", "format", "tipo"):
			if f := formatFromText(value); f != "" {
				post.MediaFormat = f
			}
		}

		t.assignSchemaField(label, value, &post.CaseDetails)
	}
}

// assignSchemaField routes an exact-match question label (after trimming a
// trailing colon and whitespace) to its custom-schema field.
func (t *Transformer) assignSchemaField(label, value string, details *domain.CaseDetails) {
	if value == "" {
		return
	}
	key := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":"))

	switch key {
	case "¿fue creado con ia?":
		details.CreatedWithAI = normalizeYesNo(value)
	case "¿ataca a un candidato?":
		details.AttacksCandidate = normalizeYesNo(value)
	case "¿a qué candidato?":
		details.AttackedCandidate = strPtr(value)
	case "¿ataca al tse o al proceso electoral?":
		details.AttacksElectoralBody = normalizeYesNo(value)
	case "¿qué narrativa se utiliza para atacar al tse o al proceso electoral?":
		details.ElectoralNarrative = strPtr(value)
	case "es caso es":
		details.CaseType = normalizeCaseType(value)
	case "señale qué narrativa de desinformación se utiliza":
		details.DisinfoNarrative = strPtr(value)
	case "¿imita a un medio de comunicación?":
		details.ImitatesOutlet = normalizeYesNo(value)
	case "¿a qué medio?":
		details.ImitatedOutlet = strPtr(value)
	case "¿qué tipo de rumor es?":
		details.RumorType = strPtr(value)
	case "el rumor que se promueve es":
		details.PromotedRumor = strPtr(value)
	}
}

// parseUpstreamTime interprets a loosely-typed timestamp. Numeric values
// above secondsThreshold are epoch seconds, below it epoch milliseconds;
// non-numeric values are parsed as ISO-8601. Anything unparseable yields
// the fallback.
func parseUpstreamTime(raw RawTimestamp, fallback time.Time) time.Time {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return fallback
	}

	if isNumeric(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fallback
		}
		if n > secondsThreshold {
			return time.Unix(n, 0).UTC()
		}
		return time.UnixMilli(n).UTC()
	}

	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC()
	}
	return fallback
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// parseCounter extracts a non-negative integer from a human-entered
// answer, tolerating trailing text ("1200 likes" -> 1200). Returns 0 when
// nothing parseable is present.
func parseCounter(value string) int {
	s := strings.TrimSpace(value)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func parseMetadata(raw json.RawMessage) mediaMetadata {
	var meta mediaMetadata
	if len(raw) == 0 {
		return meta
	}
	// Best effort: metadata is an arbitrary blob, a decode failure just
	// leaves the heuristics on their defaults.
	_ = json.Unmarshal(raw, &meta)
	return meta
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
