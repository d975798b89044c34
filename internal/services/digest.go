package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/iamalbertly/jira-reporting/internal/adapters/telegram"
	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
	"github.com/iamalbertly/jira-reporting/internal/leadership"
)

// topContributors is how many names per board go to the narrative.
const topContributors = 3

// DigestResult tells what one digest run did.
type DigestResult struct {
	BoardsGraded int
	MessagesSent int
}

// RunDigest grades the configured boards, renders the leadership digest and
// delivers it to every configured chat. Send failures are logged and the
// remaining chats still get the digest.
func (s *Service) RunDigest(ctx context.Context) (res DigestResult, err error) {
	boards := s.cfg.JiraBoardIDs
	if len(boards) == 0 {
		s.tel.DigestRun(false)
		return res, ErrNoBoards
	}
	var runID int64
	if s.store != nil {
		if runID, err = s.store.StartRun(ctx, boards); err != nil {
			s.log.Error().Err(err).Msg("start digest run failed")
			err = nil
		}
	}
	defer func() {
		s.tel.DigestRun(err == nil)
		if runID == 0 {
			return
		}
		errStr := ""
		if err != nil {
			errStr = err.Error()
		}
		if ferr := s.store.FinishRun(context.WithoutCancel(ctx), runID, res.BoardsGraded, res.MessagesSent, err == nil, errStr); ferr != nil {
			s.log.Error().Err(ferr).Int64("run", runID).Msg("finish digest run failed")
		}
	}()

	s.log.Info().Ints64("boards", boards).Msg("digest: start")
	rep, err := s.Leadership(ctx, boards)
	if err != nil {
		return res, fmt.Errorf("digest: %w", err)
	}
	res.BoardsGraded = len(rep.Leadership.Boards)

	text := RenderDigest(rep)
	if note := s.narrative(ctx, rep); note != "" {
		text += "\n*Narrative*\n" + telegram.Escape(note) + "\n"
	}
	if s.tg == nil {
		s.log.Warn().Msg("digest: telegram not configured; nothing sent")
		return res, nil
	}
	parts := telegram.Chunk(text, telegram.MaxMessageRunes)
	for _, chat := range s.cfg.TelegramChatIDs {
		for _, p := range parts {
			if serr := s.tg.SendMarkdownV2(ctx, chat, p); serr != nil {
				s.log.Error().Err(serr).Int64("chat", chat).Msg("telegram send failed")
				continue
			}
			res.MessagesSent++
		}
	}
	s.log.Info().Int("boards", res.BoardsGraded).Int("messages", res.MessagesSent).Msg("digest: done")
	return res, nil
}

// RenderDigest builds the MarkdownV2 leadership digest.
func RenderDigest(rep BoardsReport) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "*Sprint Leadership Digest*\n")
	fmt.Fprintf(b, "Window end: %s\n", telegram.Escape(format.FormatDate(rep.Leadership.WindowEnd)))
	if len(rep.Leadership.Boards) == 0 {
		fmt.Fprintf(b, "\nNo closed sprints in range\\.\n")
		return b.String()
	}
	for _, bg := range rep.Leadership.Boards {
		name := bg.BoardName
		if name == "" {
			name = fmt.Sprintf("Board %d", bg.BoardID)
		}
		fmt.Fprintf(b, "\n*%s*\n", telegram.Escape(name))
		for _, w := range bg.Windows {
			fmt.Fprintf(b, "%s\n", telegram.Escape(windowLine(w)))
		}
		if id := bg.IndexedDelivery; id != nil && id.Index != nil {
			line := fmt.Sprintf("Indexed delivery: %s (%s SP/day vs %d-sprint baseline)",
				format.FormatNumber(*id.Index, 2), format.FormatNumber(id.CurrentSPPerDay, 2), id.BaselineSprints)
			fmt.Fprintf(b, "%s\n", telegram.Escape(line))
		}
	}
	return b.String()
}

func windowLine(w leadership.WindowStats) string {
	grade := "no grade"
	if w.Grade != nil {
		grade = string(*w.Grade)
	}
	line := fmt.Sprintf("%dm: %s", w.Months, grade)
	if w.Score != nil {
		line += fmt.Sprintf(" (%s)", format.FormatNumber(*w.Score, 1))
	}
	line += fmt.Sprintf(", %d sprints, on-time %s, predictability %s",
		w.SprintCount, format.FormatPercentPtr(w.OnTimePct, 0), format.FormatPercentPtr(w.PredictabilityAvg, 0))
	switch w.Trend {
	case leadership.TrendUp, leadership.TrendDown, leadership.TrendStable:
		line += fmt.Sprintf(", velocity %s", w.Trend)
		if w.VelocityChangePct != nil {
			line += fmt.Sprintf(" %+.0f%%", *w.VelocityChangePct)
		}
	}
	return line
}

type narrativeBoard struct {
	Board           string                      `json:"board"`
	Windows         []leadership.WindowStats    `json:"windows"`
	IndexedDelivery *leadership.IndexedDelivery `json:"indexedDelivery,omitempty"`
	Contributors    []string                    `json:"topContributors,omitempty"`
}

// narrative asks the LLM for a short summary. Names are aliased and free
// text scrubbed before anything leaves the process.
func (s *Service) narrative(ctx context.Context, rep BoardsReport) string {
	if s.llm == nil || !s.llm.Enabled() {
		return ""
	}
	payload, red := narrativePayload(rep)
	b, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Msg("encode narrative payload failed")
		return ""
	}
	out, err := s.llm.Narrate(ctx, string(b))
	if err != nil {
		s.log.Error().Err(err).Msg("narrative failed")
		return ""
	}
	return red.Scrub(out)
}

func narrativePayload(rep BoardsReport) ([]narrativeBoard, *redactor) {
	summaries := map[int64]*domain.BoardSummary{}
	var names []string
	for _, bs := range rep.Boards {
		summaries[bs.BoardID] = bs
		names = append(names, bs.Assignees.Sorted()...)
	}
	red := newRedactor(names)
	out := make([]narrativeBoard, 0, len(rep.Leadership.Boards))
	for _, bg := range rep.Leadership.Boards {
		nb := narrativeBoard{
			Board:           red.Scrub(bg.BoardName),
			Windows:         bg.Windows,
			IndexedDelivery: bg.IndexedDelivery,
		}
		if bs := summaries[bg.BoardID]; bs != nil {
			for _, n := range top(bs.AssigneeSPTotals, topContributors) {
				nb.Contributors = append(nb.Contributors, red.Alias(n))
			}
		}
		out = append(out, nb)
	}
	return out, red
}

// top returns up to n names with the highest totals, ties by name.
func top(totals map[string]float64, n int) []string {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+`)
	phoneRe    = regexp.MustCompile(`\+\d[\d\- ]{7,}\d|\b\d{3}[ -]\d{3}[ -]\d{4}\b`)
	urlRe      = regexp.MustCompile(`https?://[^\s"]+`)
	tokenRe    = regexp.MustCompile(`(?i)\b(?:token|secret|password|apikey|api_key|bearer)[:=\s]+[A-Za-z0-9\-\._~+/]{8,}`)
	jiraUserRe = regexp.MustCompile(`\bJIRAUSER\d+\b`)
)

// redactor aliases known people as user01, user02... and masks emails,
// phone numbers, URLs, secrets and Jira user ids.
type redactor struct {
	alias map[string]string
	names []string
	res   []*regexp.Regexp
}

func newRedactor(names []string) *redactor {
	r := &redactor{alias: map[string]string{}}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || n == format.Empty {
			continue
		}
		if _, ok := r.alias[n]; ok {
			continue
		}
		r.alias[n] = fmt.Sprintf("user%02d", len(r.alias)+1)
		r.names = append(r.names, n)
	}
	// Longer names first so "Ann Lee" wins over "Ann".
	sort.SliceStable(r.names, func(i, j int) bool { return len(r.names[i]) > len(r.names[j]) })
	for _, n := range r.names {
		r.res = append(r.res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(n)+`\b`))
	}
	return r
}

// Alias returns the stable alias of name, or name scrubbed when unknown.
func (r *redactor) Alias(name string) string {
	if a, ok := r.alias[strings.TrimSpace(name)]; ok {
		return a
	}
	return r.Scrub(name)
}

func (r *redactor) Scrub(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = emailRe.ReplaceAllString(s, "<email>")
	s = urlRe.ReplaceAllString(s, "<url>")
	s = tokenRe.ReplaceAllString(s, "<secret>")
	s = phoneRe.ReplaceAllString(s, "<phone>")
	s = jiraUserRe.ReplaceAllString(s, "<user>")
	for i, re := range r.res {
		s = re.ReplaceAllString(s, r.alias[r.names[i]])
	}
	return s
}
