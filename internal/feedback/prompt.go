package feedback

import (
	_ "embed"
	"strings"
)

// SystemPrompt is the fixed advisor persona sent with every request.
const SystemPrompt = "You are an expert Big Tech career advisor (ex-Google, Meta, Amazon) helping junior developers break into top companies. Be direct, supportive, and beginner-friendly."

const resumePlaceholder = "{{RESUME_TEXT}}"

//go:embed prompts/feedback_v1.txt
var promptV1 string

// BuildPrompt embeds the resume text verbatim into the user prompt template.
func BuildPrompt(resumeText string) string {
	return strings.Replace(promptV1, resumePlaceholder, resumeText, 1)
}
