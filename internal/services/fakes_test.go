package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamalbertly/jira-reporting/internal/adapters/jira"
	"github.com/iamalbertly/jira-reporting/internal/config"
	"github.com/iamalbertly/jira-reporting/internal/repo"
)

const (
	spField   = "customfield_10016"
	epicField = "customfield_10014"
)

type fakeJira struct {
	mu      sync.Mutex
	boards  map[int64]jira.Board
	sprints map[int64][]jira.Sprint
	issues  map[int64][]jira.Issue
	err     error
	calls   int
	// onIssues runs before SprintIssues returns.
	onIssues func()
}

func newFakeJira() *fakeJira {
	return &fakeJira{boards: map[int64]jira.Board{}, sprints: map[int64][]jira.Sprint{}, issues: map[int64][]jira.Issue{}}
}

func (f *fakeJira) Board(_ context.Context, id int64) (jira.Board, error) {
	b, ok := f.boards[id]
	if !ok {
		return jira.Board{}, jira.ErrNotFound
	}
	return b, nil
}

func (f *fakeJira) Sprints(_ context.Context, boardID int64, _ string) ([]jira.Sprint, error) {
	return f.sprints[boardID], nil
}

func (f *fakeJira) Sprint(_ context.Context, id int64) (jira.Sprint, error) {
	if f.err != nil {
		return jira.Sprint{}, f.err
	}
	for _, list := range f.sprints {
		for _, sp := range list {
			if sp.ID == id {
				return sp, nil
			}
		}
	}
	return jira.Sprint{}, jira.ErrNotFound
}

func (f *fakeJira) SprintIssues(_ context.Context, id int64) ([]jira.Issue, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.onIssues != nil {
		f.onIssues()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.issues[id], nil
}

func (f *fakeJira) BaseURL() string { return "https://jira.example.com" }

type memStore struct {
	mu       sync.Mutex
	reports  map[string][]byte
	started  [][]int64
	finished []finishedRun
}

type finishedRun struct {
	boardsGraded, messagesSent int
	success                    bool
	errStr                     string
}

func newMemStore() *memStore { return &memStore{reports: map[string][]byte{}} }

func (m *memStore) StartRun(_ context.Context, boards []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, boards)
	return int64(len(m.started)), nil
}

func (m *memStore) FinishRun(_ context.Context, _ int64, boardsGraded, messagesSent int, success bool, errStr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, finishedRun{boardsGraded, messagesSent, success, errStr})
	return nil
}

func (m *memStore) GetLastRun(context.Context) (*repo.LastRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.finished) == 0 {
		return nil, repo.ErrNoRun
	}
	last := m.finished[len(m.finished)-1]
	return &repo.LastRun{BoardsGraded: last.boardsGraded, MessagesSent: last.messagesSent, Success: last.success, Error: last.errStr}, nil
}

func (m *memStore) SaveReport(_ context.Context, kind, key string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.reports[kind+"/"+key] = b
	m.mu.Unlock()
	return nil
}

func (m *memStore) GetReport(_ context.Context, kind, key string, out any) (time.Time, error) {
	m.mu.Lock()
	b, ok := m.reports[kind+"/"+key]
	m.mu.Unlock()
	if !ok {
		return time.Time{}, repo.ErrNoReport
	}
	return time.Time{}, json.Unmarshal(b, out)
}

type fakeNotifier struct {
	sent map[int64][]string
	fail map[int64]bool
}

func (n *fakeNotifier) SendMarkdownV2(_ context.Context, chatID int64, text string) error {
	if n.fail[chatID] {
		return context.DeadlineExceeded
	}
	if n.sent == nil {
		n.sent = map[int64][]string{}
	}
	n.sent[chatID] = append(n.sent[chatID], text)
	return nil
}

type fakeNarrator struct {
	got   string
	reply string
}

func (f *fakeNarrator) Enabled() bool { return true }

func (f *fakeNarrator) Narrate(_ context.Context, digestJSON string) (string, error) {
	f.got = digestJSON
	return f.reply, nil
}

type countingTelemetry struct {
	noopTelemetry
	mu       sync.Mutex
	computed map[string]int
	stale    int
	digests  []bool
}

func (c *countingTelemetry) ReportComputed(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.computed == nil {
		c.computed = map[string]int{}
	}
	c.computed[kind]++
}

func (c *countingTelemetry) StaleDiscarded() {
	c.mu.Lock()
	c.stale++
	c.mu.Unlock()
}

func (c *countingTelemetry) DigestRun(ok bool) {
	c.mu.Lock()
	c.digests = append(c.digests, ok)
	c.mu.Unlock()
}

func testConfig() config.Config {
	return config.Config{
		JiraBoardIDs:         []int64{7},
		JiraStoryPointsField: spField,
		JiraEpicLinkField:    epicField,
		SprintLookback:       12,
		ReportCacheTTL:       time.Minute,
		WorkersJira:          2,
		TelegramChatIDs:      []int64{100, 200},
	}
}

// testNow is Friday of the first sprint week.
var testNow = time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)

func newTestService(jc JiraClient, store Store, llm Narrator, tg Notifier, tel Telemetry) *Service {
	s := New(testConfig(), zerolog.Nop(), jc, store, llm, tg, tel)
	s.now = func() time.Time { return testNow }
	return s
}

type issueOpt func(*jira.Issue)

func mkIssue(key, typ, category string, opts ...issueOpt) jira.Issue {
	is := jira.Issue{Key: key, Fields: jira.Fields{
		Summary:   key + " summary",
		IssueType: jira.IssueType{Name: typ, Subtask: typ == "Sub-task"},
		Created:   "2025-03-01T09:00:00Z",
		Custom:    map[string]json.RawMessage{},
	}}
	is.Fields.Status.Name = category
	is.Fields.Status.StatusCategory.Key = category
	for _, o := range opts {
		o(&is)
	}
	return is
}

func withSP(sp string) issueOpt {
	return func(is *jira.Issue) { is.Fields.Custom[spField] = json.RawMessage(sp) }
}

func withAssignee(name string) issueOpt {
	return func(is *jira.Issue) { is.Fields.Assignee = &jira.User{DisplayName: name} }
}

func withCreated(ts string) issueOpt {
	return func(is *jira.Issue) { is.Fields.Created = ts }
}

func withResolved(ts string) issueOpt {
	return func(is *jira.Issue) { is.Fields.ResolutionDate = ts }
}

func withStatusChange(ts string) issueOpt {
	return func(is *jira.Issue) { is.Fields.StatusCategoryChangeDate = ts }
}

func withParent(key string) issueOpt {
	return func(is *jira.Issue) { is.Fields.Parent = &jira.Ref{Key: key} }
}

func withTime(estimate, spent float64) issueOpt {
	return func(is *jira.Issue) {
		is.Fields.TimeTracking.OriginalEstimateSeconds = &estimate
		is.Fields.TimeTracking.TimeSpentSeconds = &spent
	}
}

var activeSprint = jira.Sprint{
	ID:        11,
	Name:      "Sprint 11",
	State:     "active",
	StartDate: "2025-03-03T09:00:00Z",
	EndDate:   "2025-03-14T17:00:00Z",
}

func activeIssues() []jira.Issue {
	return []jira.Issue{
		mkIssue("APP-1", "Story", "done", withSP("5"), withAssignee("Ann Lee"),
			withResolved("2025-03-05T10:00:00Z"), withStatusChange("2025-03-05T10:00:00Z")),
		mkIssue("APP-2", "Story", "indeterminate", withSP("3"), withAssignee("Bob Stone"),
			withStatusChange("2025-03-03T10:00:00Z")),
		mkIssue("APP-3", "Bug", "new", withSP(`"2"`), withCreated("2025-03-04T08:00:00Z"),
			withStatusChange("2025-03-06T20:00:00Z")),
		mkIssue("APP-4", "Sub-task", "indeterminate", withParent("APP-2"), withAssignee("Bob Stone"),
			withTime(7200, 3600), withStatusChange("2025-03-07T00:00:00Z")),
	}
}
