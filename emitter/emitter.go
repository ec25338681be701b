// Package emitter is the upstream source of reload events.
//
// Producers call Emit with the path of each file that caused a reload,
// one call per file, so that consumers can filter the paths they watch.
// Handlers are called synchronously, in the order they were subscribed.
package emitter

import "sync"

type Handler func(identifier string)

// Token identifies a subscription. The zero Token is never handed out.
type Token uint64

// Source is what consumers subscribe to.
type Source interface {
	Subscribe(handler Handler) Token
	Unsubscribe(token Token)
}

type subscription struct {
	token   Token
	handler Handler
}

type Emitter struct {
	mu            sync.Mutex
	subscriptions []subscription
	lastToken     Token
}

func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Subscribe(handler Handler) Token {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastToken++
	e.subscriptions = append(e.subscriptions, subscription{token: e.lastToken, handler: handler})
	return e.lastToken
}

// Unsubscribe removes the handler registered with token. Unknown tokens
// are ignored.
func (e *Emitter) Unsubscribe(token Token) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, sub := range e.subscriptions {
		if sub.token == token {
			e.subscriptions = append(e.subscriptions[:i:i], e.subscriptions[i+1:]...)
			return
		}
	}
}

// Emit calls every subscribed handler with identifier and reports whether
// there was at least one.
func (e *Emitter) Emit(identifier string) bool {
	e.mu.Lock()
	handlers := make([]Handler, len(e.subscriptions))
	for i, sub := range e.subscriptions {
		handlers[i] = sub.handler
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h(identifier)
	}
	return len(handlers) > 0
}

func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subscriptions)
}
