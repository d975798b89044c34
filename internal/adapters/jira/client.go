/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamalbertly/jira-reporting/internal/config"
)

// ErrNotFound is returned when Jira answers 404 for a board, sprint or issue.
var ErrNotFound = errors.New("jira: not found")

const pageSize = 50

// Observer receives the outcome of every REST call.
type Observer interface {
	JiraRequest(endpoint string, duration time.Duration, success bool)
}

type Client struct {
	baseURL string
	token   string
	user    string
	pass    string
	http    *http.Client
	log     zerolog.Logger
	obs     Observer
	backoff time.Duration
	fields  []string
}

func NewClient(cfg config.Config, log zerolog.Logger, obs Observer) *Client {
	return &Client{
		baseURL: cfg.JiraBaseURL,
		token:   cfg.JiraPAT,
		user:    cfg.JiraUsername,
		pass:    cfg.JiraPassword,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     log,
		obs:     obs,
		backoff: 300 * time.Millisecond,
		fields:  issueFields(cfg),
	}
}

func issueFields(cfg config.Config) []string {
	f := []string{
		"summary", "status", "issuetype", "assignee", "reporter", "parent",
		"created", "updated", "resolutiondate", "statuscategorychangedate",
		"timetracking", "subtasks",
	}
	for _, id := range []string{cfg.JiraStoryPointsField, cfg.JiraEpicLinkField} {
		if strings.TrimSpace(id) != "" {
			f = append(f, id)
		}
	}
	return f
}

// BaseURL is the browse root used to build issue links.
func (c *Client) BaseURL() string { return strings.TrimRight(c.baseURL, "/") }

func (c *Client) apiURL(path string, q url.Values) string {
	base := strings.TrimRight(c.baseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := base + path
	if len(q) > 0 {
		u = u + "?" + q.Encode()
	}
	return u
}

// doJSON performs the request and decodes the response into out. 429 and
// 5xx answers are retried with exponential backoff.
func (c *Client) doJSON(ctx context.Context, endpoint, method, u string, body, out any) error {
	if c.baseURL == "" {
		return errors.New("jira: empty baseURL")
	}
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}
	start := time.Now()
	err := c.retry(ctx, method, u, payload, out)
	if c.obs != nil {
		c.obs.JiraRequest(endpoint, time.Since(start), err == nil)
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.log.Warn().Err(err).Str("endpoint", endpoint).Msg("jira request failed")
	}
	return err
}

func (c *Client) retry(ctx context.Context, method, u string, payload []byte, out any) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff * time.Duration(1<<(attempt-1))):
			}
		}
		retryable, err := c.once(ctx, method, u, payload, out)
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, method, u string, payload []byte, out any) (bool, error) {
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.user != "" && c.pass != "" {
		req.SetBasicAuth(c.user, c.pass)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusNotFound {
			return false, fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
		}
		err := fmt.Errorf("jira api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
	}
	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("jira: decode: %w", err)
	}
	return false, nil
}

type page[T any] struct {
	StartAt    int  `json:"startAt"`
	MaxResults int  `json:"maxResults"`
	Total      int  `json:"total"`
	IsLast     bool `json:"isLast"`
	Values     []T  `json:"values"`
	Issues     []T  `json:"issues"`
}

func (p page[T]) items() []T {
	if len(p.Values) > 0 {
		return p.Values
	}
	return p.Issues
}

// collect walks every page of an Agile list endpoint.
func collect[T any](ctx context.Context, c *Client, endpoint, path string, q url.Values) ([]T, error) {
	if q == nil {
		q = url.Values{}
	}
	var out []T
	start := 0
	for {
		q.Set("startAt", strconv.Itoa(start))
		q.Set("maxResults", strconv.Itoa(pageSize))
		var p page[T]
		if err := c.doJSON(ctx, endpoint, http.MethodGet, c.apiURL(path, q), nil, &p); err != nil {
			return nil, err
		}
		items := p.items()
		out = append(out, items...)
		start += len(items)
		if p.IsLast || len(items) == 0 || (p.Total > 0 && start >= p.Total) {
			return out, nil
		}
	}
}

// Boards lists every Jira Software board.
func (c *Client) Boards(ctx context.Context) ([]Board, error) {
	return collect[Board](ctx, c, "boards", "/rest/agile/1.0/board", nil)
}

func (c *Client) Board(ctx context.Context, boardID int64) (Board, error) {
	var b Board
	if boardID <= 0 {
		return b, errors.New("jira: invalid board id")
	}
	err := c.doJSON(ctx, "board", http.MethodGet, c.apiURL("/rest/agile/1.0/board/"+strconv.FormatInt(boardID, 10), nil), nil, &b)
	return b, err
}

// Sprints lists the sprints of a board. state is a Jira sprint state filter
// such as "closed" or "active,closed"; empty means all.
func (c *Client) Sprints(ctx context.Context, boardID int64, state string) ([]Sprint, error) {
	if boardID <= 0 {
		return nil, errors.New("jira: invalid board id")
	}
	q := url.Values{}
	if strings.TrimSpace(state) != "" {
		q.Set("state", state)
	}
	sprints, err := collect[Sprint](ctx, c, "sprints", "/rest/agile/1.0/board/"+strconv.FormatInt(boardID, 10)+"/sprint", q)
	for i := range sprints {
		if sprints[i].OriginBoardID == 0 {
			sprints[i].OriginBoardID = boardID
		}
	}
	return sprints, err
}

func (c *Client) Sprint(ctx context.Context, sprintID int64) (Sprint, error) {
	var s Sprint
	if sprintID <= 0 {
		return s, errors.New("jira: invalid sprint id")
	}
	err := c.doJSON(ctx, "sprint", http.MethodGet, c.apiURL("/rest/agile/1.0/sprint/"+strconv.FormatInt(sprintID, 10), nil), nil, &s)
	return s, err
}

// SprintIssues lists every issue in a sprint, sub-tasks included.
func (c *Client) SprintIssues(ctx context.Context, sprintID int64) ([]Issue, error) {
	if sprintID <= 0 {
		return nil, errors.New("jira: invalid sprint id")
	}
	q := url.Values{}
	q.Set("fields", strings.Join(c.fields, ","))
	return collect[Issue](ctx, c, "sprint_issues", "/rest/agile/1.0/sprint/"+strconv.FormatInt(sprintID, 10)+"/issue", q)
}
