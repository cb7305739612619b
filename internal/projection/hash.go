package projection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// canonicalInput keeps only the declared input surface. Extra is dropped.
func canonicalInput(in Input) map[string]any {
	var timeRange any
	if in.TimeRange != nil {
		timeRange = map[string]any{
			"from": isoOrNil(in.TimeRange.From),
			"to":   isoOrNil(in.TimeRange.To),
		}
	}
	return map[string]any{
		"userId":     in.UserID,
		"sessionId":  stringOrNil(in.SessionID),
		"modelSetId": stringOrNil(in.ModelSetID),
		"timeRange":  timeRange,
	}
}

// Fingerprint is the 32-bit FNV-1a of the canonical input, as 8 lowercase
// hex digits. It correlates audit rows; it is not a security primitive.
func Fingerprint(in Input) (string, error) {
	s, err := stableStringify(canonicalInput(in))
	if err != nil {
		return "", err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32()), nil
}

// stableStringify is JSON with object keys sorted at every depth.
func stableStringify(v any) (string, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			key, err := scalarJSON(k)
			if err != nil {
				return "", err
			}
			val, err := stableStringify(t[k])
			if err != nil {
				return "", err
			}
			parts = append(parts, key+":"+val)
		}
		return "{" + strings.Join(parts, ",") + "}", nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			val, err := stableStringify(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, val)
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	default:
		return scalarJSON(v)
	}
}

func scalarJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func isoOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(isoMillis)
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
