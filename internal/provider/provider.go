// Package provider defines the completion capability consumed by insight
// generation, a registry for discovering implementations, and an
// OpenAI-compatible HTTP implementation.
package provider

import (
	"context"
	"sync"
)

// ContentBlock is one typed block of a completion response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a chat-style completion request.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// ChatResponse carries the structured content blocks of a completion.
type ChatResponse struct {
	Content []ContentBlock `json:"content"`
}

// Text joins the text of all text-typed content blocks.
func (r *ChatResponse) Text() string {
	var out string
	for _, block := range r.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out
}

// Completer is the narrow completion interface the pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Registry holds named Completer implementations. Selection is arbitrary:
// callers get whatever provider happens to be registered, with no
// preference ordering or load balancing.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Completer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Completer)}
}

// Register adds or replaces a provider under the given name.
func (r *Registry) Register(name string, c Completer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = c
}

// First returns any registered provider, or false when none is registered.
func (r *Registry) First() (Completer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.providers {
		return c, true
	}
	return nil, false
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
