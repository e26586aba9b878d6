package prompt

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/chatnova/internal/config"
	"github.com/hyperjump/chatnova/internal/models"
)

func msg(role models.Role, content string) models.ConversationMessage {
	return models.ConversationMessage{ID: content, Role: role, Content: content}
}

func TestCompose_queryOnly(t *testing.T) {
	c := NewComposer(0)
	p := c.Compose(BuiltinPersona(models.ProviderGemini, config.KindGemini), nil,
		[]models.ConversationMessage{msg(models.RoleUser, "What is Go?")}, "What is Go?")

	if p.DocumentsSection != "" || p.HistorySection != "" {
		t.Errorf("unexpected sections: %+v", p)
	}
	if p.UserQuery != "What is Go?" {
		t.Errorf("UserQuery = %q", p.UserQuery)
	}
	if !strings.HasPrefix(p.QuerySection, "=== CURRENT QUERY ===\nWhat is Go?\n\n") {
		t.Errorf("QuerySection = %q", p.QuerySection)
	}
	for _, phrase := range []string{"uploaded documents", "conversation history", "general reasoning", "cite the source document"} {
		if !strings.Contains(p.QuerySection, phrase) {
			t.Errorf("closing instruction missing %q: %q", phrase, p.QuerySection)
		}
	}
	if !strings.Contains(p.SystemPreamble, "Google Gemini") || !strings.Contains(p.SystemPreamble, "\n\nKey guidelines:\n- ") {
		t.Errorf("SystemPreamble = %q", p.SystemPreamble)
	}
	if p.Body() != p.QuerySection {
		t.Errorf("Body() = %q, want only the query section", p.Body())
	}
}

func TestCompose_documents(t *testing.T) {
	docs := []models.UploadedDocument{
		{ID: "1", Name: "notes.txt", RawContent: "Hello world"},
		{ID: "2", Name: "plan.md", RawContent: "# Plan\nShip it"},
	}
	p := NewComposer(5).Compose(BuiltinPersona(models.ProviderGrok, config.KindGrok), docs, nil, "Summarize")

	want := "=== UPLOADED DOCUMENTS ===\n" + documentsIntro +
		"\n\n--- Document 1: notes.txt ---\nHello world\n--- End of Document 1 ---" +
		"\n\n--- Document 2: plan.md ---\n# Plan\nShip it\n--- End of Document 2 ---" +
		"\n\n" + documentsInstructions
	if p.DocumentsSection != want {
		t.Errorf("DocumentsSection =\n%s\nwant\n%s", p.DocumentsSection, want)
	}
	if !strings.Contains(p.DocumentsSection, "cite the document name") || !strings.Contains(p.DocumentsSection, "say so explicitly") {
		t.Error("documents section must ask for citations and explicit absence")
	}
	if !strings.HasPrefix(p.Body(), "=== UPLOADED DOCUMENTS ===") {
		t.Errorf("Body() should start with documents: %q", p.Body())
	}
}

func TestCompose_historyWindow(t *testing.T) {
	var history []models.ConversationMessage
	for i := 1; i <= 7; i++ {
		role := models.RoleUser
		if i%2 == 0 {
			role = models.RoleAssistant
		}
		history = append(history, msg(role, fmt.Sprintf("m%d", i)))
	}
	p := NewComposer(5).Compose(Persona{Intro: "x"}, nil, history, "m7")

	want := "=== CONVERSATION HISTORY ===\nUSER: m3\nASSISTANT: m4\nUSER: m5\nASSISTANT: m6\nUSER: m7\n=== END OF HISTORY ==="
	if p.HistorySection != want {
		t.Errorf("HistorySection =\n%s\nwant\n%s", p.HistorySection, want)
	}
}

func TestCompose_historyOmittedForSingleMessage(t *testing.T) {
	c := NewComposer(5)
	for _, h := range [][]models.ConversationMessage{nil, {msg(models.RoleUser, "hi")}} {
		if p := c.Compose(Persona{}, nil, h, "hi"); p.HistorySection != "" {
			t.Errorf("history of %d messages rendered: %q", len(h), p.HistorySection)
		}
	}
	p := c.Compose(Persona{}, nil, []models.ConversationMessage{msg(models.RoleUser, "a"), msg(models.RoleAssistant, "b")}, "a")
	if p.HistorySection == "" {
		t.Error("two messages should render history")
	}
}

func TestCompose_pureAndDeterministic(t *testing.T) {
	docs := []models.UploadedDocument{{ID: "d", Name: "a.txt", RawContent: "alpha"}}
	history := []models.ConversationMessage{msg(models.RoleUser, "q1"), msg(models.RoleAssistant, "a1"), msg(models.RoleUser, "q2")}
	docsCopy := append([]models.UploadedDocument(nil), docs...)
	historyCopy := append([]models.ConversationMessage(nil), history...)
	persona := BuiltinPersona(models.ProviderGrok, config.KindGrok)

	first := NewComposer(5).Compose(persona, docs, history, "q2")
	second := NewComposer(5).Compose(persona, docs, history, "q2")
	if first != second {
		t.Error("Compose is not deterministic")
	}
	if !reflect.DeepEqual(docs, docsCopy) || !reflect.DeepEqual(history, historyCopy) {
		t.Error("Compose mutated its inputs")
	}
	if first.String() != second.String() {
		t.Error("rendered prompts differ")
	}
}

func TestRetemplate(t *testing.T) {
	c := NewComposer(5)
	history := []models.ConversationMessage{msg(models.RoleUser, "q1"), msg(models.RoleAssistant, "a1"), msg(models.RoleUser, "q2")}
	docs := []models.UploadedDocument{{ID: "d", Name: "a.txt", RawContent: "alpha"}}
	grok := BuiltinPersona(models.ProviderGrok, config.KindGrok)
	gemini := BuiltinPersona(models.ProviderGemini, config.KindGemini)

	original := c.Compose(grok, docs, history, "q2")
	swapped := Retemplate(original, gemini)
	if swapped.SystemPreamble != gemini.Preamble() {
		t.Error("preamble not replaced")
	}
	if swapped.Body() != original.Body() {
		t.Error("Retemplate changed the body")
	}
	if swapped != c.Compose(gemini, docs, history, "q2") {
		t.Error("Retemplate should equal composing with the other persona")
	}
	if original.SystemPreamble != grok.Preamble() {
		t.Error("Retemplate modified its argument")
	}
}

func TestLatestUserQuery(t *testing.T) {
	tests := []struct {
		name     string
		messages []models.ConversationMessage
		want     string
	}{
		{"empty", nil, "Hello"},
		{"assistant only", []models.ConversationMessage{msg(models.RoleAssistant, "hi there")}, "Hello"},
		{"last user wins", []models.ConversationMessage{
			msg(models.RoleUser, "first"), msg(models.RoleAssistant, "reply"), msg(models.RoleUser, "second"), msg(models.RoleAssistant, "again"),
		}, "second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LatestUserQuery(tt.messages); got != tt.want {
				t.Errorf("LatestUserQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollectDocuments(t *testing.T) {
	a := models.UploadedDocument{ID: "a", Name: "a.txt", RawContent: "A"}
	b := models.UploadedDocument{ID: "b", Name: "b.txt", RawContent: "B"}
	legacy := models.UploadedDocument{Name: "old.txt", RawContent: "O"}
	messages := []models.ConversationMessage{
		{Role: models.RoleUser, Content: "see", AttachedDocuments: []models.UploadedDocument{b, a}},
		{Role: models.RoleUser, Content: "again", AttachedDocuments: []models.UploadedDocument{legacy, legacy}},
	}
	got := CollectDocuments([]models.UploadedDocument{a}, messages)
	var names []string
	for _, d := range got {
		names = append(names, d.Name)
	}
	if strings.Join(names, ",") != "a.txt,b.txt,old.txt" {
		t.Errorf("CollectDocuments names = %v", names)
	}
	if CollectDocuments(nil, nil) != nil {
		t.Error("no documents should give nil")
	}
}

func TestNewPersonas(t *testing.T) {
	providers := map[string]config.ProviderConfig{
		"grok":  {Kind: config.KindGrok},
		"local": {Kind: config.KindOllama, Persona: config.PersonaConfig{DisplayName: "Llama", Intro: "You are a local model."}},
	}
	ps := NewPersonas(providers)
	if ps.Lookup("grok").DisplayName != "Grok" {
		t.Errorf("grok persona: %+v", ps.Lookup("grok"))
	}
	local := ps.Lookup("local")
	if local.DisplayName != "Llama" || !strings.HasPrefix(local.Preamble(), "You are a local model.\n\nKey guidelines:") {
		t.Errorf("local persona: %+v", local)
	}
	if unknown := ps.Lookup("mystery"); unknown.DisplayName != "Mystery" {
		t.Errorf("unknown persona: %+v", unknown)
	}
}

func TestBuiltinPersona_guidelines(t *testing.T) {
	p := BuiltinPersona(models.ProviderGrok, config.KindGrok)
	if len(p.Guidelines) != 8 {
		t.Fatalf("got %d guidelines: %v", len(p.Guidelines), p.Guidelines)
	}
	if !strings.Contains(p.Guidelines[0], "wit") || !strings.Contains(p.Guidelines[7], "Cite") {
		t.Errorf("guidelines = %v", p.Guidelines)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct{ id, want string }{
		{"", "Assistant"},
		{"mistral", "Mistral"},
		{"élan", "Élan"},
		{"ñandú", "Ñandú"},
		{"7b", "7b"},
	}
	for _, tt := range tests {
		if got := displayName(tt.id); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
