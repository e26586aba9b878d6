package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/chatnova/internal/config"
	"github.com/hyperjump/chatnova/internal/models"
	"github.com/hyperjump/chatnova/internal/prompt"
	"github.com/hyperjump/chatnova/internal/provider"
)

var testProviders = map[string]config.ProviderConfig{
	"grok":   {Kind: config.KindGrok, Fallback: "gemini"},
	"gemini": {Kind: config.KindGemini},
}

func newTestDispatcher(grok, gemini *provider.Mock, opts ...Option) *Dispatcher {
	reg := provider.Registry{}
	if grok != nil {
		reg[grok.ID()] = grok
	}
	if gemini != nil {
		reg[gemini.ID()] = gemini
	}
	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	return NewDispatcher(reg, prompt.NewPersonas(testProviders), Fallbacks(testProviders), opts...)
}

func composed(t *testing.T) models.ComposedPrompt {
	t.Helper()
	personas := prompt.NewPersonas(testProviders)
	return prompt.NewComposer(0).Compose(personas.Lookup("grok"), nil, nil, "What is Go?")
}

func TestDispatch_preferredSucceeds(t *testing.T) {
	grok := provider.NewMock("grok", "Go is a language.")
	gemini := provider.NewMock("gemini", "unused")
	d := newTestDispatcher(grok, gemini)

	p := composed(t)
	resp, err := d.Dispatch(context.Background(), p, "grok")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if resp.Content != "Go is a language." || resp.ProviderUsed != "grok" || resp.Degraded || resp.Role != models.RoleAssistant {
		t.Errorf("response = %+v", resp)
	}
	if gemini.Calls() != 0 {
		t.Errorf("fallback called %d times", gemini.Calls())
	}
	req := grok.Requests()[0]
	if req.System != p.SystemPreamble || req.Prompt != p.Body() {
		t.Errorf("request = %+v", req)
	}
}

func TestDispatch_fallbackIsDegraded(t *testing.T) {
	grok := provider.NewFailingMock("grok", errors.New("503"))
	gemini := provider.NewMock("gemini", "Answer from Gemini.")
	d := newTestDispatcher(grok, gemini)

	resp, err := d.Dispatch(context.Background(), composed(t), "grok")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !resp.Degraded || resp.ProviderUsed != "gemini" {
		t.Errorf("response = %+v", resp)
	}
	want := "Answer from Gemini.\n\n*Note: Responded using Gemini as Grok is currently unavailable.*"
	if resp.Content != want {
		t.Errorf("content = %q, want %q", resp.Content, want)
	}
	sys := gemini.Requests()[0].System
	if !strings.Contains(sys, "powered by Google Gemini") || strings.Contains(sys, "powered by Grok") {
		t.Errorf("fallback preamble not re-templated: %q", sys)
	}
	if gemini.Requests()[0].Prompt != grok.Requests()[0].Prompt {
		t.Error("fallback body should match the preferred body")
	}
}

func TestDispatch_emptyAnswerFallsBack(t *testing.T) {
	for _, blank := range []string{"", "  \n\t"} {
		grok := provider.NewMock("grok", blank)
		gemini := provider.NewMock("gemini", "Answer from Gemini.")
		d := newTestDispatcher(grok, gemini)

		resp, err := d.Dispatch(context.Background(), composed(t), "grok")
		if err != nil {
			t.Fatalf("answer %q: Dispatch: %v", blank, err)
		}
		if !resp.Degraded || resp.ProviderUsed != "gemini" || gemini.Calls() != 1 {
			t.Errorf("answer %q: response = %+v, fallback calls = %d", blank, resp, gemini.Calls())
		}
	}

	grok := provider.NewMock("grok", "")
	gemini := provider.NewMock("gemini", "")
	_, err := newTestDispatcher(grok, gemini).Dispatch(context.Background(), composed(t), "grok")
	if !errors.Is(err, ErrAllProvidersFailed) || !errors.Is(err, provider.ErrEmptyResponse) {
		t.Errorf("err = %v, want all providers failed with an empty response", err)
	}
}

func TestDispatch_bothFail(t *testing.T) {
	errGrok := errors.New("grok down")
	errGemini := errors.New("gemini down")
	grok := provider.NewFailingMock("grok", errGrok)
	gemini := provider.NewFailingMock("gemini", errGemini)
	d := newTestDispatcher(grok, gemini)

	_, err := d.Dispatch(context.Background(), composed(t), "grok")
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("err = %v, want ErrAllProvidersFailed", err)
	}
	var failed *AllProvidersFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err type = %T", err)
	}
	if failed.Preferred != "grok" || failed.Fallback != "gemini" {
		t.Errorf("failed = %+v", failed)
	}
	if !errors.Is(err, errGrok) || !errors.Is(err, errGemini) {
		t.Error("both causes should be reachable")
	}
	if total := grok.Calls() + gemini.Calls(); total != 2 {
		t.Errorf("total calls = %d, want 2", total)
	}
}

func TestDispatch_noFallbackConfigured(t *testing.T) {
	grok := provider.NewMock("grok", "unused")
	gemini := provider.NewFailingMock("gemini", errors.New("quota"))
	d := newTestDispatcher(grok, gemini)

	_, err := d.Dispatch(context.Background(), composed(t), "gemini")
	var failed *AllProvidersFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v", err)
	}
	if failed.Fallback != "" || failed.FallbackErr != nil {
		t.Errorf("failed = %+v", failed)
	}
	if grok.Calls() != 0 || gemini.Calls() != 1 {
		t.Errorf("calls grok=%d gemini=%d", grok.Calls(), gemini.Calls())
	}
}

func TestDispatch_unregisteredFallbackIsSkipped(t *testing.T) {
	grok := provider.NewFailingMock("grok", errors.New("down"))
	d := newTestDispatcher(grok, nil)

	_, err := d.Dispatch(context.Background(), composed(t), "grok")
	var failed *AllProvidersFailedError
	if !errors.As(err, &failed) || failed.Fallback != "" {
		t.Fatalf("err = %v", err)
	}
}

func TestDispatch_unknownProvider(t *testing.T) {
	d := newTestDispatcher(provider.NewMock("grok", "x"), nil)
	_, err := d.Dispatch(context.Background(), composed(t), "claude")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestDispatch_timeoutFallsBack(t *testing.T) {
	grok := provider.NewMockFunc("grok", func(ctx context.Context, _ provider.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	gemini := provider.NewMock("gemini", "fast")
	d := newTestDispatcher(grok, gemini, WithTimeout(20*time.Millisecond))

	resp, err := d.Dispatch(context.Background(), composed(t), "grok")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if resp.ProviderUsed != "gemini" {
		t.Errorf("providerUsed = %s", resp.ProviderUsed)
	}
}

func TestDispatch_cancelledParentSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	grok := provider.NewMockFunc("grok", func(context.Context, provider.Request) (string, error) {
		cancel()
		return "", context.Canceled
	})
	gemini := provider.NewMock("gemini", "unused")
	d := newTestDispatcher(grok, gemini)

	_, err := d.Dispatch(ctx, composed(t), "grok")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if gemini.Calls() != 0 {
		t.Errorf("fallback called after cancellation")
	}
}

func TestFallbacks(t *testing.T) {
	got := Fallbacks(map[string]config.ProviderConfig{
		"grok":   {Fallback: "gemini"},
		"gemini": {},
		"self":   {Fallback: "self"},
	})
	if len(got) != 1 || got["grok"] != "gemini" {
		t.Errorf("Fallbacks = %v", got)
	}
}

func TestState_String(t *testing.T) {
	if StateRequestingFallback.String() != "requesting_fallback" || State(42).String() != "state(42)" {
		t.Error("unexpected state names")
	}
}
