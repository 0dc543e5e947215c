package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindMatching(t *testing.T) {
	errTaken := Conflict("slot already booked")
	wrapped := fmt.Errorf("book: %w", errTaken)

	if !errors.Is(wrapped, errTaken) {
		t.Fatal("wrapped error should match its sentinel")
	}
	if !errors.Is(wrapped, ErrConflict) {
		t.Fatal("wrapped error should match ErrConflict")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Fatal("conflict must not match ErrValidation")
	}
	if got := Kind(wrapped); got != ErrConflict {
		t.Errorf("Kind() = %v; want %v", got, ErrConflict)
	}
	if wrapped.Error() != "book: slot already booked" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestKindUnclassified(t *testing.T) {
	if got := Kind(errors.New("boom")); got != nil {
		t.Errorf("Kind() = %v; want nil", got)
	}
	cases := map[error]*Error{
		ErrValidation: Validation("v"),
		ErrState:      State("s"),
		ErrNotFound:   NotFound("n"),
	}
	for kind, e := range cases {
		if Kind(e) != kind {
			t.Errorf("Kind(%v) = %v; want %v", e, Kind(e), kind)
		}
	}
}
