package check

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"factsync/internal/domain"
)

const (
	SourceID   = "check_api"
	SourceName = "Check API"
)

// Config holds Check API source configuration.
type Config struct {
	APIURL       string
	Token        string
	TeamSlug     string
	FetchLimit   int
	Timeout      time.Duration // bulk searches over large result sets are slow
	ProbeTimeout time.Duration
}

// Source fetches cases from the Check API GraphQL endpoint and transforms
// them into canonical posts. It issues one round-trip per call and does
// not retry internally; the sync cycle retries on its next tick.
type Source struct {
	httpClient  *http.Client
	probeClient *http.Client
	apiURL      string
	token       string
	teamSlug    string
	fetchLimit  int
	transformer *Transformer
	logger      *slog.Logger
}

// New creates a new Check API source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		probeClient: &http.Client{Timeout: cfg.ProbeTimeout},
		apiURL:      cfg.APIURL,
		token:       cfg.Token,
		teamSlug:    cfg.TeamSlug,
		fetchLimit:  cfg.FetchLimit,
		transformer: NewTransformer(cfg.TeamSlug, logger),
		logger:      logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns the human-readable name.
func (s *Source) Name() string {
	return SourceName
}

const mediasQuery = `
query getMedias($query: String!) {
  search(query: $query) {
    medias {
      edges {
        node {
          id
          dbid
          url
          quote
          created_at
          updated_at
          last_status
          title
          description
          media {
            url
            metadata
            type
          }
          claim_description {
            description
            context
          }
          tags {
            edges {
              node {
                tag
                tag_text
              }
            }
          }
          tasks {
            edges {
              node {
                id
                label
                type
                first_response_value
              }
            }
          }
        }
      }
    }
  }
}`

// FetchPosts fetches the most recently added cases, bounded by limit, and
// returns them in canonical form. A limit <= 0 uses the configured fetch
// limit.
func (s *Source) FetchPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	if limit <= 0 {
		limit = s.fetchLimit
	}

	searchQuery, _ := json.Marshal(map[string]any{
		"eslimit": limit,
		"sort":    "recent_added",
	})

	var data searchData
	if err := s.query(ctx, s.httpClient, "fetch medias", mediasQuery, string(searchQuery), &data); err != nil {
		return nil, err
	}

	nodes := make([]MediaNode, 0, len(data.Search.Medias.Edges))
	for _, edge := range data.Search.Medias.Edges {
		nodes = append(nodes, edge.Node)
	}

	s.logger.Debug("fetched medias", "count", len(nodes))

	return s.transformer.TransformAll(nodes), nil
}

// FetchPostsSince fetches recent cases and keeps only those updated at or
// after the given instant. The upstream search has no reliable time
// filter, so filtering happens client-side over a recency-sorted page.
func (s *Source) FetchPostsSince(ctx context.Context, since time.Time) ([]domain.Post, error) {
	posts, err := s.FetchPosts(ctx, s.fetchLimit)
	if err != nil {
		return nil, err
	}

	var recent []domain.Post
	for _, p := range posts {
		if !p.UpdatedAt.Before(since) {
			recent = append(recent, p)
		}
	}
	return recent, nil
}

const probeQuery = `
query {
  me {
    name
  }
}`

// ProbeResult reports the outcome of a connectivity check.
type ProbeResult struct {
	Success bool   `json:"success"`
	Account string `json:"account,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TestConnection validates connectivity and credentials with a minimal
// identity query. A failed probe is a result, not an error.
func (s *Source) TestConnection(ctx context.Context) ProbeResult {
	var data meData
	if err := s.query(ctx, s.probeClient, "probe", probeQuery, "", &data); err != nil {
		return ProbeResult{Success: false, Error: err.Error()}
	}
	return ProbeResult{Success: true, Account: data.Me.Name}
}

const statsQuery = `
query getStatistics($query: String!) {
  search(query: $query) {
    medias {
      edges {
        node {
          last_status
          created_at
        }
      }
    }
  }
}`

// Statistics is a status breakdown over a bounded upstream sample.
type Statistics struct {
	Total       int `json:"total"`
	Verified    int `json:"verified"`
	False       int `json:"false"`
	Misleading  int `json:"misleading"`
	Unverified  int `json:"unverified"`
	Recent24h   int `json:"recent_24h"`
	SampleLimit int `json:"sample_limit"`
}

const statsSampleLimit = 1000

// FetchStatistics computes a status breakdown over the most recently
// active cases.
func (s *Source) FetchStatistics(ctx context.Context) (*Statistics, error) {
	searchQuery, _ := json.Marshal(map[string]any{
		"eslimit": statsSampleLimit,
		"sort":    "recent_activity",
	})

	var data statsData
	if err := s.query(ctx, s.httpClient, "fetch statistics", statsQuery, string(searchQuery), &data); err != nil {
		return nil, err
	}

	stats := &Statistics{SampleLimit: statsSampleLimit}
	yesterday := time.Now().Add(-24 * time.Hour)

	for _, edge := range data.Search.Medias.Edges {
		stats.Total++
		switch strings.ToLower(edge.Node.LastStatus) {
		case "verified":
			stats.Verified++
		case "false":
			stats.False++
		case "misleading":
			stats.Misleading++
		default:
			stats.Unverified++
		}
		if parseUpstreamTime(edge.Node.CreatedAt, time.Time{}).After(yesterday) {
			stats.Recent24h++
		}
	}

	return stats, nil
}

// query executes one GraphQL round-trip and decodes data into out. Both
// transport failures and a non-empty protocol error list surface as
// *domain.UpstreamError.
func (s *Source) query(ctx context.Context, client *http.Client, op, gql, searchQuery string, out any) error {
	reqBody := graphQLRequest{Query: gql}
	if searchQuery != "" {
		reqBody.Variables = map[string]string{"query": searchQuery}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Check-Token", s.token)
	req.Header.Set("X-Check-Team", s.teamSlug)
	req.Header.Set("User-Agent", "factsync/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return &domain.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &domain.UpstreamError{Op: op, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &domain.UpstreamError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(envelope.Errors) > 0 {
		messages := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			messages[i] = e.Message
		}
		return &domain.UpstreamError{Op: op, Message: strings.Join(messages, "; ")}
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &domain.UpstreamError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
	}

	return nil
}
