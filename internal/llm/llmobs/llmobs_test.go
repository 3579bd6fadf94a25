package llmobs

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeOracle struct {
	reply string
	err   error
	calls int
}

func (f *fakeOracle) Ask(ctx context.Context, system, payload string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestWrapPassesReplyThrough(t *testing.T) {
	inner := &fakeOracle{reply: "UP"}
	got, err := Wrap(inner, "GROQ").Ask(context.Background(), "sys", "payload")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "UP" {
		t.Errorf("Expected reply UP, got %q", got)
	}
	if inner.calls != 1 {
		t.Errorf("Expected 1 call, got %d", inner.calls)
	}
}

func TestWrapPassesErrorThrough(t *testing.T) {
	want := errors.New("rate limited")
	_, err := Wrap(&fakeOracle{err: want}, "OPENAI").Ask(context.Background(), "sys", "payload")
	if !errors.Is(err, want) {
		t.Errorf("Expected %v, got %v", want, err)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 64); got != "short" {
		t.Errorf("Expected unchanged string, got %q", got)
	}
	got := truncate(strings.Repeat("a", 70), 64)
	if len(got) != 67 || !strings.HasSuffix(got, "...") {
		t.Errorf("Expected 64 chars plus ellipsis, got %q", got)
	}
}
