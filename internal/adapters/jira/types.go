package jira

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Board struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location struct {
		ProjectKey string `json:"projectKey"`
	} `json:"location"`
}

type Sprint struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	State         string `json:"state"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	CompleteDate  string `json:"completeDate"`
	Goal          string `json:"goal"`
	OriginBoardID int64  `json:"originBoardId"`
}

type Issue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields Fields `json:"fields"`
}

type Ref struct {
	Key string `json:"key"`
}

type User struct {
	DisplayName string `json:"displayName"`
}

type Status struct {
	Name           string `json:"name"`
	StatusCategory struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"statusCategory"`
}

type IssueType struct {
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

type TimeTracking struct {
	OriginalEstimateSeconds  *float64 `json:"originalEstimateSeconds"`
	TimeSpentSeconds         *float64 `json:"timeSpentSeconds"`
	RemainingEstimateSeconds *float64 `json:"remainingEstimateSeconds"`
}

// Fields holds the standard issue fields plus every other field raw, so
// instance specific custom fields can be read by id.
type Fields struct {
	Summary                  string       `json:"summary"`
	Status                   Status       `json:"status"`
	IssueType                IssueType    `json:"issuetype"`
	Assignee                 *User        `json:"assignee"`
	Reporter                 *User        `json:"reporter"`
	Parent                   *Ref         `json:"parent"`
	Created                  string       `json:"created"`
	Updated                  string       `json:"updated"`
	ResolutionDate           string       `json:"resolutiondate"`
	StatusCategoryChangeDate string       `json:"statuscategorychangedate"`
	TimeTracking             TimeTracking `json:"timetracking"`

	Custom map[string]json.RawMessage `json:"-"`
}

func (f *Fields) UnmarshalJSON(b []byte) error {
	type plain Fields
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*f = Fields(p)
	f.Custom = map[string]json.RawMessage{}
	for k, v := range raw {
		if strings.HasPrefix(k, "customfield_") {
			f.Custom[k] = v
		}
	}
	return nil
}

func (f Fields) AssigneeName() string {
	if f.Assignee == nil {
		return ""
	}
	return f.Assignee.DisplayName
}

func (f Fields) ReporterName() string {
	if f.Reporter == nil {
		return ""
	}
	return f.Reporter.DisplayName
}

func (f Fields) ParentKey() string {
	if f.Parent == nil {
		return ""
	}
	return f.Parent.Key
}

// Number reads a numeric custom field. Jira sometimes sends numbers as
// strings; those are parsed too.
func (f Fields) Number(id string) *float64 {
	raw, ok := f.Custom[id]
	if !ok || isNull(raw) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}
	return nil
}

// Text reads a string custom field, or the key/name/value of an object one.
func (f Fields) Text(id string) string {
	raw, ok := f.Custom[id]
	if !ok || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Key   string `json:"key"`
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, v := range []string{obj.Key, obj.Value, obj.Name} {
			if v != "" {
				return v
			}
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// Done reports whether the issue sits in Jira's done status category.
func (i Issue) Done() bool {
	return strings.EqualFold(i.Fields.Status.StatusCategory.Key, "done")
}
