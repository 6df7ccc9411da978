package feedback

import (
	"encoding/json"
	"fmt"
)

var listFields = []string{"strengths", "weaknesses", "tips"}

var scoreFields = []string{"big_tech_readiness_score", "resume_format_score"}

// Inspect lists how doc deviates from the documented feedback shape.
// Deviations are reported for logging only; the document is still stored.
func Inspect(doc map[string]any) []string {
	fb, ok := doc["feedback"].(map[string]any)
	if !ok {
		return []string{"missing feedback object"}
	}

	var issues []string
	for _, key := range scoreFields {
		raw, ok := fb[key]
		if !ok {
			issues = append(issues, fmt.Sprintf("missing %s", key))
			continue
		}
		num, ok := raw.(json.Number)
		if !ok {
			issues = append(issues, fmt.Sprintf("%s is not a number", key))
			continue
		}
		score, err := num.Int64()
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s is not an integer", key))
			continue
		}
		if score < 1 || score > 10 {
			issues = append(issues, fmt.Sprintf("%s out of range: %d", key, score))
		}
	}
	for _, key := range listFields {
		raw, ok := fb[key]
		if !ok {
			issues = append(issues, fmt.Sprintf("missing %s", key))
			continue
		}
		items, ok := raw.([]any)
		if !ok {
			issues = append(issues, fmt.Sprintf("%s is not a list", key))
			continue
		}
		for _, item := range items {
			if _, ok := item.(string); !ok {
				issues = append(issues, fmt.Sprintf("%s contains a non-string item", key))
				break
			}
		}
	}
	if raw, ok := fb["motivation"]; !ok {
		issues = append(issues, "missing motivation")
	} else if _, ok := raw.(string); !ok {
		issues = append(issues, "motivation is not a string")
	}
	return issues
}
