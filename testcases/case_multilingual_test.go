package testcases

import (
	"context"
	"testing"

	"github.com/lexvaani/formfill/session"
)

func TestLiveHindiUtterance(t *testing.T) {
	t.Parallel()
	engine := NewLiveEngine(t)
	ctx := context.Background()

	start, err := engine.Start(ctx, session.StartRequest{
		Utterance: "मुझे अपना नाम बदलना है, मेरा नाम रमेश कुमार है",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.DetectedLanguage != "hi" {
		t.Errorf("expected hi, got %s", start.DetectedLanguage)
	}
	if start.FormTypeID != "name_change" {
		t.Errorf("expected name_change, got %s", start.FormTypeID)
	}
	if name, ok := start.Filled["applicant_full_name"]; ok {
		if name != "Ramesh Kumar" {
			t.Errorf("expected normalized English name, got %v", name)
		}
	}
	if start.NextQuestion != nil && start.NextQuestion.Language != "hi" {
		t.Errorf("expected Hindi question, got language %s", start.NextQuestion.Language)
	}
}

func TestLiveTamilAnswerNormalized(t *testing.T) {
	t.Parallel()
	engine := NewLiveEngine(t)
	ctx := context.Background()

	start, err := engine.Start(ctx, session.StartRequest{
		FormHint: "affidavit_general",
		Language: "ta",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := engine.Answer(ctx, start.SessionID, "என் பெயர் கமலா தேவி", "ta")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if resp.Status != session.AnswerAccepted {
		t.Fatalf("expected accepted, got %s (%s)", resp.Status, resp.Message)
	}

	sess, err := engine.Session(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if name, ok := sess.Filled["deponent_name"]; ok {
		t.Logf("normalized name: %v", name)
	} else {
		t.Error("deponent_name not filled")
	}
}
