// Package runner holds the built-in task handlers (spec.md §4.5) and the
// registry that dispatches a claimed Task to the right one by Kind.
package runner

import (
	"context"
	"fmt"

	"github.com/trustle-io/taskscheduler/internal/domain"
)

// Handler runs one execution of a task and returns the result payload
// stored on the execution row. An error maps to execution status "failed".
type Handler func(ctx context.Context, task *domain.Task) (domain.Params, error)

// Registry maps task Kind to Handler, mirroring the teacher's pattern of a
// small lookup table rather than a type switch spread across callers.
type Registry struct {
	handlers map[domain.Kind]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.Kind]Handler)}
}

func (r *Registry) Register(kind domain.Kind, h Handler) {
	r.handlers[kind] = h
}

func (r *Registry) Lookup(kind domain.Kind) (Handler, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown task kind %q", kind)
	}
	return h, nil
}
