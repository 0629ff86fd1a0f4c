package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

var keySynonyms = map[string]string{
	"previous_actions":          "previousActions",
	"actuaciones":               "previousActions",
	"difficulties_strengths":    "difficultiesStrengths",
	"dificultades":              "difficultiesStrengths",
	"unmet_evaluation_criteria": "unmetEvaluationCriteria",
	"criterios":                 "unmetEvaluationCriteria",
}

// NormalizeAndSanitizeJSON
// - Renames known synonyms (previous_actions -> previousActions)
// - Drops nulls
// - Coerces numbers/bools to strings and joins string arrays with newlines
// - Removes unknown keys
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	for from, to := range keySynonyms {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	for k, v := range m {
		if !slices.Contains(SectionKeys, k) {
			delete(m, k)
			dropped = append(dropped, k)
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		case string:
			m[k] = strings.TrimSpace(t)
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			m[k] = strconv.FormatBool(t)
		case []any:
			parts := make([]string, 0, len(t))
			for _, item := range t {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			m[k] = strings.Join(parts, "\n")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		slices.Sort(dropped)
		logger.Debug("llm.sanitize.applied", "dropped", dropped)
	}
	return out, dropped, nil
}

// StripCodeFence removes a surrounding ```json ... ``` block some models emit
// even when asked for bare JSON.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
