package command

import (
	"sort"
	"strings"
)

// parseParams extracts param=value pairs from the free text after a command.
// Values run until the next known parameter or the end of the message, so
// multi-word values like subject=Meeting Reminder work without quoting.
func parseParams(message string, schema map[string]string) map[string]string {
	params := make(map[string]string)

	for param := range schema {
		marker := param + "="
		idx := strings.Index(message, marker)
		if idx < 0 {
			continue
		}
		rest := message[idx+len(marker):]

		var value strings.Builder
		for _, part := range strings.Fields(rest) {
			if name, _, ok := strings.Cut(part, "="); ok {
				if _, known := schema[name]; known {
					break
				}
			}
			if value.Len() > 0 {
				value.WriteByte(' ')
			}
			value.WriteString(part)
		}
		params[param] = strings.TrimSpace(value.String())
	}
	return params
}

// missingRequired returns schema parameters marked Required that have no
// value, sorted for stable output.
func missingRequired(schema map[string]string, params map[string]string) []string {
	var missing []string
	for param, desc := range schema {
		if !strings.Contains(desc, "Required") {
			continue
		}
		if _, ok := params[param]; !ok {
			missing = append(missing, param)
		}
	}
	sort.Strings(missing)
	return missing
}

// mentionsAny reports whether the message references any schema parameter.
func mentionsAny(message string, schema map[string]string) bool {
	for param := range schema {
		if strings.Contains(message, param) {
			return true
		}
	}
	return false
}

// exampleValue picks a plausible placeholder for a required parameter when
// building usage examples.
func exampleValue(param string) string {
	p := strings.ToLower(param)
	switch {
	case strings.Contains(p, "email") || p == "to":
		return "example@example.com"
	case strings.Contains(p, "city") || strings.Contains(p, "location") || p == "q":
		return "London"
	case strings.Contains(p, "symbol"):
		return "AAPL"
	case strings.Contains(p, "title"):
		return "My Task Title"
	case strings.Contains(p, "subject"):
		return "Meeting Reminder"
	default:
		return "<your " + param + ">"
	}
}

// sortedKeys keeps parameter listings deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
