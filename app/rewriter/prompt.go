package rewriter

import (
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const systemTemplate = `You are a writer. Rewrite the given article in the following style and voice. Output only the rewritten article body in Markdown, no meta-commentary.

%s

Additional instructions:
- Preserve the factual content and meaning; change only style and wording.
- Apply SEO: natural keyword placement, clear headings (##), and a concise meta-friendly tone where appropriate.
- Highlight key SEO terms and important phrases in the body by wrapping them in **bold** so they stand out in the text.
- Output valid Markdown only (no YAML block at the start for this task).`

// BuildMessages returns the system and user messages for one rewrite.
func BuildMessages(style, title, body string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf(systemTemplate, style),
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf("Article to rewrite:\n\n# %s\n\n%s", title, body),
		},
	}
}
