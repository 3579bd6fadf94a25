package fail

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("place order: %w", New(Rejected, "venue.PlaceLimitOrder", errors.New("min size")))

	kind, ok := KindOf(err)
	if !ok {
		t.Fatal("Expected wrapped fail.Error to be found")
	}
	if kind != Rejected {
		t.Errorf("Expected kind %s, got %s", Rejected, kind)
	}
	if !IsKind(err, Rejected) {
		t.Error("Expected IsKind to report Rejected")
	}
	if IsKind(err, Transport) {
		t.Error("Expected IsKind to be false for Transport")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("boom")); ok {
		t.Error("Expected plain error to have no kind")
	}
}

func TestFromContext(t *testing.T) {
	if err := FromContext("op", nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}

	err := FromContext("llm.Ask", fmt.Errorf("post: %w", context.DeadlineExceeded))
	if !IsKind(err, Timeout) {
		t.Errorf("Expected Timeout, got %v", err)
	}

	err = FromContext("venue.FetchBars", errors.New("connection reset"))
	if !IsKind(err, Transport) {
		t.Errorf("Expected Transport, got %v", err)
	}

	orig := New(Malformed, "venue.FetchTopOfBook", nil)
	if got := FromContext("other", orig); got != error(orig) {
		t.Errorf("Expected classified error to pass through, got %v", got)
	}
}

func TestErrorMessage(t *testing.T) {
	e := New(Malformed, "venue.FetchTopOfBook", nil)
	if e.Error() != "venue.FetchTopOfBook: malformed" {
		t.Errorf("Expected message without cause, got %q", e.Error())
	}
	e = New(Transport, "venue.FetchBars", errors.New("eof"))
	if e.Error() != "venue.FetchBars: transport: eof" {
		t.Errorf("Expected message with cause, got %q", e.Error())
	}
}
