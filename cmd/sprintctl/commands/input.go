package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UsageError marks bad flags or unreadable input. main exits with 2 for it.
type UsageError struct {
	msg   string
	cause error
}

func (e *UsageError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *UsageError) Unwrap() error { return e.cause }

func usage(msg string, cause error) error { return &UsageError{msg: msg, cause: cause} }

// decodeInput reads a JSON or YAML document into out. "-" reads stdin, which
// is sniffed: anything not starting with { or [ is treated as YAML.
func decodeInput(path string, stdin io.Reader, out any) error {
	if path == "" {
		return usage("--input is required", nil)
	}
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return usage("read input", err)
	}

	if isYAML(path, b) {
		var doc any
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return usage("parse yaml", err)
		}
		// Round-trip through JSON so the json tags of the report types apply.
		if b, err = json.Marshal(jsonable(doc)); err != nil {
			return usage("convert yaml", err)
		}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return usage("parse json", err)
	}
	return nil
}

func isYAML(path string, b []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	s := strings.TrimSpace(string(b))
	return s != "" && s[0] != '{' && s[0] != '['
}

// jsonable turns YAML maps with non-string keys into string keyed maps.
func jsonable(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = jsonable(e)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = jsonable(e)
		}
		return m
	case []any:
		for i, e := range t {
			t[i] = jsonable(e)
		}
		return t
	case time.Time:
		// unquoted YAML timestamps
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

func parseClock(v string) (time.Time, error) {
	if v == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, usage("time must be RFC3339", err)
	}
	return t, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
