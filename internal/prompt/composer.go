// Package prompt assembles the text sent to a provider from persona, documents, history and query.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hyperjump/chatnova/internal/models"
)

// DefaultHistoryWindow is how many recent messages are rendered into the history section.
const DefaultHistoryWindow = 5

// DefaultQuery stands in for the query when the conversation has no user message.
const DefaultQuery = "Hello"

const (
	documentsHeader = "=== UPLOADED DOCUMENTS ==="
	historyHeader   = "=== CONVERSATION HISTORY ==="
	historyFooter   = "=== END OF HISTORY ==="
	queryHeader     = "=== CURRENT QUERY ==="

	documentsIntro        = "You have access to the following uploaded documents:"
	documentsInstructions = "When you use information from these documents, cite the document name. " +
		"If the documents do not contain the answer, say so explicitly before answering from general knowledge."
	closingInstruction = "Answer the current query by combining the uploaded documents, the conversation " +
		"history and your own general reasoning, and cite the source document whenever you use one."
)

// Composer builds prompts. It holds no state besides the history window and is safe for concurrent use.
type Composer struct {
	window int
}

// NewComposer returns a composer rendering the last window messages. Non-positive uses DefaultHistoryWindow.
func NewComposer(window int) *Composer {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &Composer{window: window}
}

// Compose is a pure function of its arguments: the same inputs always give the same prompt.
// History is the full conversation including the latest message; it is rendered only when it
// holds more than one message.
func (c *Composer) Compose(persona Persona, docs []models.UploadedDocument, history []models.ConversationMessage, query string) models.ComposedPrompt {
	return models.ComposedPrompt{
		SystemPreamble:   persona.Preamble(),
		DocumentsSection: documentsSection(docs),
		HistorySection:   c.historySection(history),
		UserQuery:        query,
		QuerySection:     querySection(query),
	}
}

// Retemplate swaps the preamble for persona, leaving documents, history and query untouched.
func Retemplate(p models.ComposedPrompt, persona Persona) models.ComposedPrompt {
	p.SystemPreamble = persona.Preamble()
	return p
}

func documentsSection(docs []models.UploadedDocument) string {
	if len(docs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(documentsHeader)
	b.WriteString("\n")
	b.WriteString(documentsIntro)
	for i, d := range docs {
		n := i + 1
		fmt.Fprintf(&b, "\n\n--- Document %d: %s ---\n", n, d.Name)
		b.WriteString(d.RawContent)
		fmt.Fprintf(&b, "\n--- End of Document %d ---", n)
	}
	b.WriteString("\n\n")
	b.WriteString(documentsInstructions)
	return b.String()
}

func (c *Composer) historySection(history []models.ConversationMessage) string {
	if len(history) <= 1 {
		return ""
	}
	recent := history[max(len(history)-c.window, 0):]
	var b strings.Builder
	b.WriteString(historyHeader)
	for _, m := range recent {
		fmt.Fprintf(&b, "\n%s: %s", strings.ToUpper(string(m.Role)), m.Content)
	}
	b.WriteString("\n")
	b.WriteString(historyFooter)
	return b.String()
}

func querySection(query string) string {
	return queryHeader + "\n" + query + "\n\n" + closingInstruction
}

// LatestUserQuery returns the content of the last user message, or DefaultQuery when there is none.
func LatestUserQuery(messages []models.ConversationMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i].Content
		}
	}
	return DefaultQuery
}

// CollectDocuments merges the request's uploaded files with documents attached to messages,
// keeping first occurrences in order. Documents without an ID are keyed by name and content.
func CollectDocuments(uploaded []models.UploadedDocument, messages []models.ConversationMessage) []models.UploadedDocument {
	seen := make(map[string]struct{})
	var out []models.UploadedDocument
	add := func(d models.UploadedDocument) {
		key := d.ID
		if key == "" {
			key = d.Name + "\x00" + d.RawContent
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	for _, d := range uploaded {
		add(d)
	}
	for _, m := range messages {
		for _, d := range m.AttachedDocuments {
			add(d)
		}
	}
	return out
}
