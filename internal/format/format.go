/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package format holds the display helpers and numeric guards shared by
// every report computation. Nothing here returns NaN or Inf.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Empty is shown for values that cannot be rendered.
const Empty = "-"

var printer = message.NewPrinter(language.English)

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts the timestamp shapes Jira and the report payloads use.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == Empty {
		return time.Time{}, false
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// EpochMillis returns the unix milliseconds of s, or 0 when s does not parse.
func EpochMillis(s string) int64 {
	t, ok := ParseTime(s)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// Percent returns num/den*100, or 0 when den is not positive.
func Percent(num, den float64) float64 {
	if den <= 0 || !finite(num) || !finite(den) {
		return 0
	}
	return num / den * 100
}

// Ratio returns num/den, or nil when den is not positive.
func Ratio(num, den float64) *float64 {
	if den <= 0 || !finite(num) || !finite(den) {
		return nil
	}
	v := num / den
	return &v
}

// PercentPtr is Ratio scaled to a percentage.
func PercentPtr(num, den float64) *float64 {
	r := Ratio(num, den)
	if r == nil {
		return nil
	}
	v := *r * 100
	return &v
}

func Round(v float64, decimals int) float64 {
	if !finite(v) {
		return 0
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// FormatPercent renders v as "42.5%". Non-finite values render as Empty.
func FormatPercent(v float64, decimals int) string {
	if !finite(v) {
		return Empty
	}
	return fmt.Sprintf("%.*f%%", decimals, v)
}

// FormatPercentPtr renders a nullable percentage.
func FormatPercentPtr(v *float64, decimals int) string {
	if v == nil {
		return Empty
	}
	return FormatPercent(*v, decimals)
}

// FormatNumber renders v with thousands grouping, e.g. 1,234.5.
func FormatNumber(v float64, decimals int) string {
	if !finite(v) {
		return Empty
	}
	if decimals < 0 {
		decimals = 0
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

// FormatDate renders a timestamp for display, e.g. "Mar 4, 2025".
func FormatDate(s string) string {
	t, ok := ParseTime(s)
	if !ok {
		return Empty
	}
	return t.Format("Jan 2, 2006")
}

// Text returns s trimmed, or Empty when nothing is left.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Empty
	}
	return s
}

// IsBlank reports whether s carries no real value.
func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == Empty
}

// Positive reports whether p is set and greater than zero.
func Positive(p *float64) bool { return p != nil && *p > 0 }

// Value dereferences p, treating nil as zero.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func Float(v float64) *float64 { return &v }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
