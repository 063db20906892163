// Package session holds the conversational state machine that drives a form
// from first utterance to a validated, complete field set.
package session

import (
	"time"
)

type Status string

const (
	StatusCollecting Status = "collecting"
	StatusValidating Status = "validating"
	StatusComplete   Status = "complete"
	StatusCancelled  Status = "cancelled"
)

// Session is the full persisted state of one form-filling conversation.
// Filled only ever contains normalized, non-empty values; Pending lists the
// field ids still owed by the user, in ask order.
type Session struct {
	ID             string         `json:"id"`
	FormTypeID     string         `json:"form_type_id"`
	Language       string         `json:"language"`
	Status         Status         `json:"status"`
	Filled         map[string]any `json:"filled"`
	Pending        []string       `json:"pending"`
	CreatedAt      time.Time      `json:"created_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
}

// CurrentFieldID is the field the next user answer is expected to fill.
func (s *Session) CurrentFieldID() (string, bool) {
	if len(s.Pending) == 0 {
		return "", false
	}
	return s.Pending[0], true
}

func (s *Session) popPending(id string) {
	out := s.Pending[:0]
	for _, p := range s.Pending {
		if p != id {
			out = append(out, p)
		}
	}
	s.Pending = out
}

// pushFront re-queues a field at the head so it is asked again first.
func (s *Session) pushFront(id string) {
	s.popPending(id)
	s.Pending = append([]string{id}, s.Pending...)
}

// clone returns a deep copy detached from the stored session, so callers can
// read it while the engine keeps mutating the original.
func (s *Session) clone() *Session {
	out := *s
	out.Filled = make(map[string]any, len(s.Filled))
	for k, v := range s.Filled {
		out.Filled[k] = v
	}
	out.Pending = append([]string(nil), s.Pending...)
	return &out
}

// Progress reports how far along the required fields are.
type Progress struct {
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

func progressOf(filledRequired, totalRequired int) Progress {
	p := Progress{Current: filledRequired, Total: totalRequired}
	if totalRequired > 0 {
		p.Percent = float64(filledRequired) / float64(totalRequired) * 100
	}
	return p
}
