/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

package alerts

import "github.com/iamalbertly/jira-reporting/internal/domain"

// Banner is the alert strip shown under the verdict bar.
type Banner struct {
	Alerts   []domain.Alert  `json:"alerts"`
	Severity domain.Severity `json:"severity,omitempty"`
	Color    string          `json:"color,omitempty"`
}

// NewBanner keeps every alert except scope growth, which the verdict bar
// already surfaces, and colors itself by the worst remaining severity.
func NewBanner(alerts []domain.Alert) Banner {
	b := Banner{Alerts: []domain.Alert{}}
	worst := domain.Severity("")
	for _, a := range alerts {
		if a.Type == TypeScopeGrowth {
			continue
		}
		b.Alerts = append(b.Alerts, a)
		if a.Severity.Rank() > worst.Rank() || worst == "" {
			worst = a.Severity
		}
	}
	if len(b.Alerts) == 0 {
		return b
	}
	b.Severity = worst
	b.Color = colorFor(worst)
	return b
}

func colorFor(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return ColorRed
	case domain.SeverityHigh:
		return ColorOrange
	case domain.SeverityMedium:
		return ColorYellow
	default:
		return ColorGreen
	}
}
