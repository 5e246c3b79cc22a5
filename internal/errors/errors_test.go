package errors

import (
	"strings"
	"testing"
)

func TestValidationErrorsAggregatesEveryViolation(t *testing.T) {
	v := NewValidationErrors(ErrInvalidOrder)
	if v.Err() != nil {
		t.Fatalf("expected nil error for empty aggregate")
	}

	v.Add("quantity", 0.5, "below minimum 1")
	v.Add("limitPrice", 100.003, "not aligned to tick size 0.01")

	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if !Is(err, ErrInvalidOrder) {
		t.Errorf("expected errors.Is(err, ErrInvalidOrder)")
	}
	msg := err.Error()
	for _, want := range []string{"below minimum 1", "not aligned to tick size"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
	if v.Len() != 2 {
		t.Errorf("Len() = %d, want 2", v.Len())
	}

	var ve *ValidationError
	if !As(err, &ve) {
		t.Fatal("expected a *ValidationError in the chain")
	}
	if ve.Field != "quantity" {
		t.Errorf("first violation field = %s, want quantity", ve.Field)
	}
}

func TestOrderErrorUnwrap(t *testing.T) {
	err := NewOrderError("o-1", "AAPL", "cancel", "already filled", ErrOrderTerminal)
	if !Is(err, ErrOrderTerminal) {
		t.Errorf("expected OrderError to unwrap to ErrOrderTerminal")
	}
	if !strings.Contains(err.Error(), "o-1") {
		t.Errorf("message should carry the order id: %s", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}
