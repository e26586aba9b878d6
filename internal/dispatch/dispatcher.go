// Package dispatch sends a composed prompt to the selected provider and applies the
// fallback policy when it fails.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/chatnova/internal/config"
	"github.com/hyperjump/chatnova/internal/models"
	"github.com/hyperjump/chatnova/internal/prompt"
	"github.com/hyperjump/chatnova/internal/provider"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

// State is a step of a dispatch.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateRequestingFallback
	StateSucceeded
	StateAllFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateRequestingFallback:
		return "requesting_fallback"
	case StateSucceeded:
		return "succeeded"
	case StateAllFailed:
		return "all_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Dispatcher routes prompts to providers. It is safe for concurrent use.
type Dispatcher struct {
	providers provider.Registry
	personas  prompt.Personas
	fallbacks map[models.ProviderID]models.ProviderID
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithTimeout sets the per-call timeout. Non-positive keeps DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewDispatcher creates a dispatcher over the given providers. fallbacks maps a provider
// to the one tried when it fails.
func NewDispatcher(providers provider.Registry, personas prompt.Personas, fallbacks map[models.ProviderID]models.ProviderID, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		providers: providers,
		personas:  personas,
		fallbacks: fallbacks,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fallbacks extracts the fallback map from provider configuration.
func Fallbacks(cfgs map[string]config.ProviderConfig) map[models.ProviderID]models.ProviderID {
	out := make(map[models.ProviderID]models.ProviderID)
	for id, pc := range cfgs {
		if pc.Fallback != "" && pc.Fallback != id {
			out[models.ProviderID(id)] = models.ProviderID(pc.Fallback)
		}
	}
	return out
}

// Has reports whether id is registered.
func (d *Dispatcher) Has(id models.ProviderID) bool {
	_, ok := d.providers[id]
	return ok
}

// FallbackFor returns the fallback configured for id, or "" when there is none.
func (d *Dispatcher) FallbackFor(id models.ProviderID) models.ProviderID {
	return d.fallbacks[id]
}

// Dispatch sends p to preferred. When that fails and a registered fallback is configured,
// p is re-templated with the fallback's persona and sent once more. There is never a third attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, p models.ComposedPrompt, preferred models.ProviderID) (*models.ProviderResponse, error) {
	primary, ok := d.providers[preferred]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, preferred)
	}
	log := d.logger.With(zap.String("preferred", string(preferred)))
	log.Debug("dispatch", zap.Stringer("state", StateIdle))

	log.Debug("dispatch", zap.Stringer("state", StateRequesting), zap.String("provider", string(preferred)))
	content, err := d.call(ctx, primary, p)
	if err == nil {
		log.Debug("dispatch", zap.Stringer("state", StateSucceeded), zap.String("provider", string(preferred)))
		return &models.ProviderResponse{Role: models.RoleAssistant, Content: content, ProviderUsed: preferred}, nil
	}
	log.Warn("provider failed", zap.String("provider", string(preferred)), zap.Error(err))

	failed := &AllProvidersFailedError{Preferred: preferred, PreferredErr: err}
	next, ok := d.fallbackProvider(preferred)
	if !ok || ctx.Err() != nil {
		log.Error("dispatch failed", zap.Stringer("state", StateAllFailed), zap.Error(failed))
		return nil, failed
	}

	failed.Fallback = next.ID()
	log.Info("dispatch", zap.Stringer("state", StateRequestingFallback), zap.String("provider", string(next.ID())))
	content, err = d.call(ctx, next, prompt.Retemplate(p, d.personas.Lookup(next.ID())))
	if err != nil {
		failed.FallbackErr = err
		log.Error("dispatch failed", zap.Stringer("state", StateAllFailed), zap.Error(failed))
		return nil, failed
	}

	log.Info("dispatch", zap.Stringer("state", StateSucceeded), zap.String("provider", string(next.ID())), zap.Bool("degraded", true))
	return &models.ProviderResponse{
		Role:         models.RoleAssistant,
		Content:      content + fallbackNote(d.personas.Lookup(next.ID()), d.personas.Lookup(preferred)),
		ProviderUsed: next.ID(),
		Degraded:     true,
	}, nil
}

func (d *Dispatcher) fallbackProvider(preferred models.ProviderID) (provider.Provider, bool) {
	id, ok := d.fallbacks[preferred]
	if !ok || id == "" || id == preferred {
		return nil, false
	}
	p, ok := d.providers[id]
	if !ok {
		d.logger.Warn("fallback provider not registered", zap.String("preferred", string(preferred)), zap.String("fallback", string(id)))
	}
	return p, ok
}

func (d *Dispatcher) call(ctx context.Context, p provider.Provider, cp models.ComposedPrompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	start := time.Now()
	content, err := p.Generate(ctx, provider.Request{System: cp.SystemPreamble, Prompt: cp.Body()})
	if err == nil && strings.TrimSpace(content) == "" {
		err = fmt.Errorf("%w: %s", provider.ErrEmptyResponse, p.ID())
	}
	d.logger.Debug("provider call",
		zap.String("provider", string(p.ID())),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", err == nil))
	return content, err
}

func fallbackNote(used, preferred prompt.Persona) string {
	return fmt.Sprintf("\n\n*Note: Responded using %s as %s is currently unavailable.*", used.DisplayName, preferred.DisplayName)
}
