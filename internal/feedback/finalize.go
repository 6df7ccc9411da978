package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// StaticTip is appended to every tips list the model returns.
const StaticTip = "Prepare for behavioral and situational questions using the **STAR** (Situation, Task, Action, Result) format. Big Tech companies value not just technical skills, but also **soft skills** like **teamwork**, **leadership**, and **problem-solving**. Be ready to share a **situation** where you faced a **challenge**, what **task** you were responsible for, the **action** you took, and the **result** of that action."

// ExtractJSON returns the span from the first '{' to the last '}' in raw.
// With several brace regions the span covers all of them and will usually fail to parse.
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return "", ErrNoJSONFound
	}
	end := strings.LastIndex(raw, "}")
	if end < start {
		return "", ErrNoJSONFound
	}
	return raw[start : end+1], nil
}

// Finalize parses the model response and appends StaticTip to feedback.tips.
// The object's shape is not validated.
func Finalize(raw string) (map[string]any, error) {
	candidate, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidJSON)
	}

	AppendStaticTip(out)
	return out, nil
}

// AppendStaticTip adds StaticTip as the last tip when feedback.tips is a list.
// It reports whether the tip was added.
func AppendStaticTip(doc map[string]any) bool {
	fb, ok := doc["feedback"].(map[string]any)
	if !ok {
		return false
	}
	tips, ok := fb["tips"].([]any)
	if !ok {
		return false
	}
	fb["tips"] = append(tips, StaticTip)
	return true
}
