package answers

import (
	"fmt"
	"strings"
)

const instructions = "You are an expert Google Form filler. Your task is to provide answers for ALL questions provided.\n" +
	"CRITICAL RULES:\n" +
	"1. LANGUAGE: Respond in the SAME language as the question was asked.\n" +
	"2. FALLBACK: If the personal data does not contain the answer, output exactly '" + NoAnswer + "'.\n" +
	"3. FORMAT: Output ONLY the answers. Separate each answer with EXACTLY TWO newlines (\\n\\n).\n" +
	"4. ORDER: The order of your answers MUST strictly match the order of the questions provided.\n" +
	"Do not include the question text, explanations, or any extra characters."

const answerFormats = `
ANSWER FORMAT PER TYPE:
- TextResponse: Plain text.
- DateResponse: YYYY-MM-DD.
- TimeResponse: HH:MM (24 hour clock).
- RadioResponse/ListboxResponse: One string from the options list.
- CheckboxResponse: One or more options separated by '|'.
- FileUploadResponse: One absolute file path taken from the context.
`

// SystemPrompt builds the system message listing every question in order.
func SystemPrompt(questions []Question) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n")
	b.WriteString(answerFormats)
	b.WriteString("\nQUESTIONS TO ANSWER (STRICT ORDER):")
	for i, q := range questions {
		fmt.Fprintf(&b, "\n%d. Question: '%s' (Type: %s)", i+1, q.Text, q.Kind)
		if len(q.Options) > 0 {
			fmt.Fprintf(&b, " | Options: %s", strings.Join(q.Options, ", "))
		}
	}
	return b.String()
}

// UserPrompt wraps the personal data the model answers from.
func UserPrompt(userContext string) string {
	return "USER CONTEXT / PERSONAL DATA:\n" + userContext
}
