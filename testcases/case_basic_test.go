package testcases

import (
	"context"
	"testing"

	"github.com/lexvaani/formfill/session"
)

func TestLiveNameChangeFlow(t *testing.T) {
	t.Parallel()
	engine := NewLiveEngine(t)
	ctx := context.Background()

	start, err := engine.Start(ctx, session.StartRequest{
		Utterance: "I want to change my name from Ramesh Kumar to Ramesh Sharma",
		Language:  "en",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.FormTypeID != "name_change" {
		t.Errorf("expected name_change, got %s", start.FormTypeID)
	}
	if start.NextQuestion == nil {
		t.Fatal("expected a follow-up question")
	}
	t.Logf("first question: %s", start.NextQuestion.Text)

	resp, err := engine.Answer(ctx, start.SessionID, "I am 32 years old", "en")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	t.Logf("turn status: %s, progress %d/%d", resp.Status, resp.Progress.Current, resp.Progress.Total)
}

func TestLiveCancelMidForm(t *testing.T) {
	t.Parallel()
	engine := NewLiveEngine(t)
	ctx := context.Background()

	start, err := engine.Start(ctx, session.StartRequest{
		FormHint: "affidavit_general",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := engine.Answer(ctx, start.SessionID, "actually I don't want to do this anymore, please stop", "en")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	sess, err := engine.Session(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.Status != session.StatusCancelled {
		t.Errorf("expected cancelled, got %s (message: %s)", sess.Status, resp.Message)
	}
}
