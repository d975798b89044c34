/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

package workrisk

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

// mergeKey identifies a group of rows. Keyed rows collapse by normalized
// issue key; anonymous rows (blank key) never collapse with anything.
type mergeKey interface{ isMergeKey() }

type keyed string

type anonymous uuid.UUID

func (keyed) isMergeKey()     {}
func (anonymous) isMergeKey() {}

func keyOf(row domain.WorkRiskRow) mergeKey {
	if k := normalizeKey(row.IssueKey); k != "" {
		return keyed(k)
	}
	return anonymous(uuid.New())
}

// Merge collapses rows sharing an issue key. Source and risk type become
// unions; every other field keeps the first real value seen; updated
// becomes the latest timestamp. The result is sorted freshest first.
func Merge(rows []domain.WorkRiskRow) []domain.WorkRiskRow {
	index := map[mergeKey]int{}
	out := make([]domain.WorkRiskRow, 0, len(rows))
	for _, r := range rows {
		k := keyOf(r)
		if i, ok := index[k]; ok {
			out[i] = combine(out[i], r)
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return format.EpochMillis(out[i].Updated) > format.EpochMillis(out[j].Updated)
	})
	return out
}

func combine(dst, src domain.WorkRiskRow) domain.WorkRiskRow {
	dst.Source = union(dst.Source, src.Source)
	dst.RiskType = union(dst.RiskType, src.RiskType)

	dst.IssueKey = keepText(dst.IssueKey, src.IssueKey)
	dst.IssueURL = keepText(dst.IssueURL, src.IssueURL)
	dst.Summary = keepText(dst.Summary, src.Summary)
	dst.IssueType = keepText(dst.IssueType, src.IssueType)
	dst.Status = keepText(dst.Status, src.Status)
	dst.Assignee = keepText(dst.Assignee, src.Assignee)
	dst.Reporter = keepText(dst.Reporter, src.Reporter)

	dst.StoryPoints = keepFloat(dst.StoryPoints, src.StoryPoints)
	dst.HoursInStatus = keepFloat(dst.HoursInStatus, src.HoursInStatus)
	dst.EstimateHours = keepFloat(dst.EstimateHours, src.EstimateHours)
	dst.LoggedHours = keepFloat(dst.LoggedHours, src.LoggedHours)

	dst.Updated = latest(dst.Updated, src.Updated)
	return dst
}

// union appends v unless it already appears in list, ignoring case.
func union(list, v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "" || strings.Contains(strings.ToLower(list), strings.ToLower(v)):
		return list
	case strings.TrimSpace(list) == "":
		return v
	default:
		return list + ", " + v
	}
}

func keepText(cur, next string) string {
	if format.IsBlank(cur) && !format.IsBlank(next) {
		return next
	}
	return cur
}

func keepFloat(cur, next *float64) *float64 {
	if cur == nil && next != nil {
		return copyFloat(next)
	}
	return cur
}

func latest(cur, next string) string {
	if format.IsBlank(cur) {
		if format.IsBlank(next) {
			return cur
		}
		return next
	}
	if format.EpochMillis(next) > format.EpochMillis(cur) {
		return next
	}
	return cur
}
