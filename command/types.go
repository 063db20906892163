// Package command recognizes conversational control intents, so a user
// saying "cancel" mid-form is not mistaken for a field answer.
package command

import "context"

type Command string

const (
	// Cancel abandons the session.
	Cancel Command = "cancel"
	// Status asks how far along the form is.
	Status Command = "status"
	// None means the input is a regular answer.
	None Command = "none"
)

// Request carries the turn under interpretation. Question is the prompt the
// user was answering, which disambiguates words like "stop".
type Request struct {
	Question string
	Answer   string
	Language string
}

type Parser interface {
	ParseCommand(ctx context.Context, req *Request) (Command, error)
}
