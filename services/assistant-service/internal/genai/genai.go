// Package genai fronts the generative model the assistant endpoints call.
package genai

import (
	"context"
	"sync"
)

// Generator produces a text completion for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Lazy defers building the underlying client until the first request needs
// it, so the service starts even when the model backend is slow or
// misconfigured. Concurrent first calls share one initialization; a failed
// initialization is sticky and reported to every caller.
type Lazy struct {
	init func() (Generator, error)
	once sync.Once
	gen  Generator
	err  error
}

func NewLazy(init func() (Generator, error)) *Lazy {
	return &Lazy{init: init}
}

func (l *Lazy) GenerateContent(ctx context.Context, prompt string) (string, error) {
	l.once.Do(func() {
		l.gen, l.err = l.init()
	})
	if l.err != nil {
		return "", l.err
	}
	return l.gen.GenerateContent(ctx, prompt)
}
