// Package leetcode fetches a user's accepted submissions from the LeetCode
// GraphQL API, following pagination until the upstream signals exhaustion.
package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/terskinalex/leetcode-activity-tracker/internal/apperr"
	"github.com/terskinalex/leetcode-activity-tracker/internal/config"
)

const submissionListQuery = `
	query submissionList($username: String!, $offset: Int!, $limit: Int!) {
		submissionList(username: $username, offset: $offset, limit: $limit) {
			hasNext
			submissions {
				id
				title
				titleSlug
				timestamp
				statusDisplay
				lang
			}
		}
	}
`

// UnixTime decodes the upstream timestamp field, which some API revisions
// emit as a quoted string and others as a bare number.
type UnixTime int64

func (t *UnixTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	*t = UnixTime(v)
	return nil
}

// RawSubmission is one record as returned by the upstream API.
type RawSubmission struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	TitleSlug     string   `json:"titleSlug"`
	Timestamp     UnixTime `json:"timestamp"`
	StatusDisplay string   `json:"statusDisplay"`
	Lang          string   `json:"lang"`
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type submissionListData struct {
	SubmissionList struct {
		HasNext     bool            `json:"hasNext"`
		Submissions []RawSubmission `json:"submissions"`
	} `json:"submissionList"`
}

// Client issues paginated submission queries against the LeetCode API.
type Client struct {
	endpoint   string
	pageSize   int
	pageDelay  time.Duration
	httpClient *http.Client
}

// NewClient creates a client from the ingestion configuration.
func NewClient(cfg config.IngestionConfig) *Client {
	return &Client{
		endpoint:  cfg.APIEndpoint,
		pageSize:  cfg.PageSize,
		pageDelay: cfg.PageDelay,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchSubmissions accumulates every submission reachable via pagination for
// the given user. Pages are fetched strictly sequentially; a fixed delay
// between requests keeps the client within upstream rate limits. An empty
// page or a cleared hasNext flag terminates the loop; any transport or
// payload error aborts the whole fetch with no partial result.
func (c *Client) FetchSubmissions(ctx context.Context, username string) ([]RawSubmission, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperr.Validation("username is required")
	}

	var all []RawSubmission
	offset := 0
	for {
		page, hasNext, err := c.fetchPage(ctx, username, offset)
		if err != nil {
			return nil, err
		}

		// Zero records means exhaustion even if hasNext claims otherwise.
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		if !hasNext {
			break
		}
		offset += c.pageSize

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pageDelay):
		}
	}

	return all, nil
}

// fetchPage requests a single page at the given offset.
func (c *Client) fetchPage(ctx context.Context, username string, offset int) ([]RawSubmission, bool, error) {
	requestData := graphqlRequest{
		Query: strings.ReplaceAll(submissionListQuery, "\n", " "),
		Variables: map[string]any{
			"username": username,
			"offset":   offset,
			"limit":    c.pageSize,
		},
	}
	requestBody, err := json.Marshal(requestData)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://leetcode.com")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, apperr.Upstream(err, "failed to reach LeetCode API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, apperr.Upstream(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, false, apperr.Upstream(nil, "LeetCode API returned status %d", resp.StatusCode)
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false, apperr.Upstream(err, "failed to unmarshal response")
	}
	if len(envelope.Errors) > 0 {
		return nil, false, apperr.Upstream(nil, "LeetCode API error: %s", envelope.Errors[0].Message)
	}

	var data submissionListData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, false, apperr.Upstream(err, "failed to unmarshal submission list")
	}

	return data.SubmissionList.Submissions, data.SubmissionList.HasNext, nil
}
