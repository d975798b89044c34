/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	TZ       string
	HTTPAddr string

	DBDSN string

	JiraBaseURL          string
	JiraPAT              string
	JiraUsername         string
	JiraPassword         string
	JiraBoardIDs         []int64
	JiraStoryPointsField string
	JiraEpicLinkField    string
	JiraFieldsFile       string
	JiraFieldMap         map[string]string // name -> id

	SprintLookback int
	ReportCacheTTL time.Duration

	OpenAIKey     string
	OpenAIModel   string
	OpenAITimeout time.Duration

	TelegramToken   string
	TelegramChatIDs []int64

	DigestCron  string
	HTTPTimeout time.Duration
	WorkersJira int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoi(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseInt64s(csv string) []int64 {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

func parseStrings(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ParseInt64s parses a comma separated id list, skipping invalid entries.
func ParseInt64s(csv string) []int64 { return parseInt64s(csv) }

// ParseStrings splits a comma separated list, dropping empty entries.
func ParseStrings(csv string) []string { return parseStrings(csv) }

func Load() Config {
	cfg := Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		TZ:       getenv("APP_TZ", "UTC"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DBDSN: getenv("DB_DSN", ""),

		JiraBaseURL:          getenv("JIRA_BASE_URL", ""),
		JiraPAT:              getenv("JIRA_PAT", ""),
		JiraUsername:         getenv("JIRA_USERNAME", ""),
		JiraPassword:         getenv("JIRA_PASSWORD", ""),
		JiraBoardIDs:         parseInt64s(getenv("JIRA_BOARD_IDS", "")),
		JiraStoryPointsField: getenv("JIRA_STORY_POINTS_FIELD", "customfield_10016"),
		JiraEpicLinkField:    getenv("JIRA_EPIC_LINK_FIELD", "customfield_10014"),
		JiraFieldsFile:       getenv("JIRA_FIELDS_FILE", "config/jira_fields.json"),

		SprintLookback: atoi("REPORT_SPRINT_LOOKBACK", 12),
		ReportCacheTTL: dur("REPORT_CACHE_TTL", 5*time.Minute),

		OpenAIKey:     getenv("OPENAI_API_KEY", ""),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAITimeout: dur("OPENAI_TIMEOUT", 15*time.Second),

		TelegramToken:   getenv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatIDs: parseInt64s(getenv("TELEGRAM_CHAT_IDS", "")),

		DigestCron:  getenv("CRON_SPEC", "0 10 * * FRI"),
		HTTPTimeout: dur("HTTP_TIMEOUT", 15*time.Second),
		WorkersJira: atoi("WORKERS_JIRA", 6),
	}

	if loc, err := time.LoadLocation(cfg.TZ); err == nil {
		time.Local = loc
	} else {
		log.Printf("warning: cannot load TZ %s: %v", cfg.TZ, err)
	}

	// Field names in the optional map override the story point and epic
	// link ids, so one file can describe a Jira instance.
	if m := loadFieldMap(cfg.JiraFieldsFile); len(m) > 0 {
		cfg.JiraFieldMap = m
		if id, ok := m["Story Points"]; ok {
			cfg.JiraStoryPointsField = id
		}
		if id, ok := m["Epic Link"]; ok {
			cfg.JiraEpicLinkField = id
		}
	}
	return cfg
}

func loadFieldMap(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	type fieldDef struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	var arr []fieldDef
	if err := json.Unmarshal(data, &arr); err != nil {
		log.Printf("warning: cannot parse %s: %v", path, err)
		return nil
	}
	m := map[string]string{}
	for _, f := range arr {
		n := strings.TrimSpace(f.Name)
		if n != "" && f.ID != "" {
			m[n] = f.ID
		}
	}
	return m
}
