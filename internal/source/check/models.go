package check

import (
	"bytes"
	"encoding/json"
)

// graphQLRequest is the POST body sent to the Check API.
type graphQLRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables,omitempty"`
}

// graphQLResponse is the generic GraphQL envelope. A non-empty Errors list
// is a protocol-level failure even when HTTP status is 200.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// searchData mirrors data.search.medias.edges[].node of the search query.
type searchData struct {
	Search struct {
		Medias struct {
			Edges []mediaEdge `json:"edges"`
		} `json:"medias"`
	} `json:"search"`
}

type mediaEdge struct {
	Node MediaNode `json:"node"`
}

// MediaNode is the raw upstream representation of one case. Fields are
// loosely typed on purpose: the upstream schema is free-form, timestamps
// arrive as numbers, numeric strings, or ISO strings, and task answers are
// human-entered text.
type MediaNode struct {
	ID          string       `json:"id"`
	DBID        int64        `json:"dbid"`
	URL         string       `json:"url"`
	Quote       string       `json:"quote"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	LastStatus  string       `json:"last_status"`
	CreatedAt   RawTimestamp `json:"created_at"`
	UpdatedAt   RawTimestamp `json:"updated_at"`

	Media *struct {
		URL      string          `json:"url"`
		Type     string          `json:"type"`
		Metadata json.RawMessage `json:"metadata"`
	} `json:"media"`

	ClaimDescription *struct {
		Description string `json:"description"`
		Context     string `json:"context"`
	} `json:"claim_description"`

	Tags struct {
		Edges []tagEdge `json:"edges"`
	} `json:"tags"`

	Tasks struct {
		Edges []taskEdge `json:"edges"`
	} `json:"tasks"`
}

type tagEdge struct {
	Node struct {
		Tag     string `json:"tag"`
		TagText string `json:"tag_text"`
	} `json:"node"`
}

type taskEdge struct {
	Node TaskNode `json:"node"`
}

// TaskNode is one labeled question/answer pair attached to a case.
type TaskNode struct {
	ID                 string `json:"id"`
	Label              string `json:"label"`
	Type               string `json:"type"`
	FirstResponseValue string `json:"first_response_value"`
}

// mediaMetadata is the subset of media.metadata the transformer cares
// about. The metadata blob is decoded best-effort; anything unexpected
// leaves the fields empty.
type mediaMetadata struct {
	Type     string `json:"type"`
	Provider string `json:"provider"`
}

// RawTimestamp preserves a timestamp field exactly as the upstream sent
// it: JSON number, numeric string, or ISO-8601 string. Unit detection
// happens later in the transformer.
type RawTimestamp string

func (t *RawTimestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = RawTimestamp(s)
		return nil
	}
	// A bare number: keep its literal text.
	*t = RawTimestamp(data)
	return nil
}

// meData mirrors data.me of the connectivity probe.
type meData struct {
	Me struct {
		Name string `json:"name"`
	} `json:"me"`
}

// statsData mirrors the minimal fields requested by the statistics query.
type statsData struct {
	Search struct {
		Medias struct {
			Edges []struct {
				Node struct {
					LastStatus string       `json:"last_status"`
					CreatedAt  RawTimestamp `json:"created_at"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"medias"`
	} `json:"search"`
}
