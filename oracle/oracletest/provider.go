// Package oracletest provides scripted oracle providers for tests.
package oracletest

import (
	"context"
	"errors"
	"sync"

	"github.com/lexvaani/formfill/oracle"
)

// Step is one scripted oracle exchange.
type Step struct {
	Text string
	Err  error
}

// Scripted replays a fixed sequence of responses and records the prompts it
// received. Calling past the end of the script fails the call.
type Scripted struct {
	mu      sync.Mutex
	steps   []Step
	Prompts []string
}

func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

// Append queues additional steps after the current script.
func (s *Scripted) Append(steps ...Step) {
	s.mu.Lock()
	s.steps = append(s.steps, steps...)
	s.mu.Unlock()
}

func (s *Scripted) Complete(ctx context.Context, prompt string, opts ...oracle.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Prompts = append(s.Prompts, prompt)
	if len(s.steps) == 0 {
		return "", errors.New("oracletest: script exhausted")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step.Text, step.Err
}

// Func adapts a function to oracle.Provider for tests that need to inspect
// the prompt before answering.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Complete(ctx context.Context, prompt string, opts ...oracle.Option) (string, error) {
	return f(ctx, prompt)
}
