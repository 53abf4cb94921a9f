// Package oracle abstracts the trained prediction model behind a scoring
// interface, so the reconciler never depends on a particular model runtime.
package oracle

import (
	"context"
	"sync"

	"github.com/praevita/praevita/internal/common"
	"github.com/praevita/praevita/internal/model"
)

// Scorer produces projected cholera and typhoid case counts for one
// observation's features.
type Scorer interface {
	Score(ctx context.Context, features model.Features) (cholera, typhoid int, err error)
}

// Provider hands out the currently loaded scorer. It returns
// common.ErrModelNotLoaded while no model is available.
type Provider interface {
	Current() (Scorer, error)
}

// StaticProvider wraps a fixed scorer. A nil scorer models the
// "model failed to load at startup" state.
type StaticProvider struct {
	mu     sync.RWMutex
	scorer Scorer
}

// NewStaticProvider creates a provider around the given scorer.
func NewStaticProvider(scorer Scorer) *StaticProvider {
	return &StaticProvider{scorer: scorer}
}

// Current returns the loaded scorer or common.ErrModelNotLoaded.
func (p *StaticProvider) Current() (Scorer, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.scorer == nil {
		return nil, common.ErrModelNotLoaded
	}
	return p.scorer, nil
}

// Load replaces the provider's scorer. Passing nil unloads it.
func (p *StaticProvider) Load(scorer Scorer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scorer = scorer
}
