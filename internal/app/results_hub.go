package app

import (
	"sync"

	"quizops-service/internal/domain"
)

// ResultsHub fans sealed-attempt results out to per-quiz subscribers. It is
// process-local: each instance serves the websocket feeds of its own server.
type ResultsHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.AttemptResult]struct{}
}

func NewResultsHub() *ResultsHub {
	return &ResultsHub{
		subscribers: make(map[string]map[chan domain.AttemptResult]struct{}),
	}
}

// Subscribe returns a channel receiving results for one quiz. The caller must
// invoke the returned cancel function to avoid leaks.
func (h *ResultsHub) Subscribe(quizID string) (<-chan domain.AttemptResult, func()) {
	ch := make(chan domain.AttemptResult, 8)

	h.mu.Lock()
	set, ok := h.subscribers[quizID]
	if !ok {
		set = make(map[chan domain.AttemptResult]struct{})
		h.subscribers[quizID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subscribers[quizID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subscribers, quizID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a result to every subscriber of its quiz. Slow consumers
// lose their oldest pending result rather than blocking the publisher.
func (h *ResultsHub) Publish(result domain.AttemptResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[result.QuizID] {
		select {
		case ch <- result:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- result
		}
	}
}
