package prompt

import (
	"strings"

	"rag-orchestrator-be/pkg/llm"
	"rag-orchestrator-be/pkg/store"
)

// SystemRules is the fixed preamble constraining the model to the supplied
// context. The citation tag format is load-bearing: the UI links sources by
// parsing [source:<id>].
const SystemRules = `You are a medical question-answering assistant.
Rules:
1) Use ONLY the provided CONTEXT.
2) If context is insufficient, say you don't have enough information.
3) Do NOT provide diagnosis or prescriptions; advise consulting a clinician.
4) Add citations like [source:<id>].
`

// maxHistoryMessages bounds how much conversation is replayed into the
// prompt; full history stays in the session store.
const maxHistoryMessages = 6

// Build composes the grounded prompt from the question, the retrieved chunks
// (in relevance order, not re-sorted) and the trailing chat history. Pure
// function: identical inputs give byte-identical output, and nil history is
// equivalent to an empty one.
func Build(question string, chunks []store.RetrievedChunk, history []llm.Message) string {
	var b strings.Builder

	b.WriteString(SystemRules)
	b.WriteString("\n\nCHAT_HISTORY:\n")
	b.WriteString(renderHistory(history))
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nCONTEXT:\n")
	b.WriteString(renderContext(chunks))
	b.WriteString("\n\nAnswer concisely. Include citations like [source:abc].")

	return b.String()
}

func renderHistory(history []llm.Message) string {
	if len(history) == 0 {
		return "NONE"
	}

	last := history
	if len(last) > maxHistoryMessages {
		last = last[len(last)-maxHistoryMessages:]
	}

	lines := make([]string, 0, len(last))
	for _, m := range last {
		lines = append(lines, strings.ToUpper(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func renderContext(chunks []store.RetrievedChunk) string {
	if len(chunks) == 0 {
		return "NO_CONTEXT"
	}

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, "[source:"+c.ID+"] "+c.Text)
	}
	return strings.Join(parts, "\n\n")
}
