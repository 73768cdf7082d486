package storage

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindsRoundTrip(t *testing.T) {
	cases := []struct {
		err       error
		kind      Kind
		predicate func(error) bool
	}{
		{InvalidArgumentf("bad"), KindInvalidArgument, IsInvalidArgument},
		{NotFoundf("gone"), KindNotFound, IsNotFound},
		{Conflictf("dup"), KindConflict, IsConflict},
		{Unauthorizedf("nope"), KindUnauthorized, IsUnauthorized},
		{Forbiddenf("denied"), KindForbidden, IsForbidden},
		{UploadFailedf("upstream"), KindUploadFailed, IsUploadFailed},
	}
	for _, tc := range cases {
		if KindOf(tc.err) != tc.kind {
			t.Errorf("KindOf(%v) = %v, want %v", tc.err, KindOf(tc.err), tc.kind)
		}
		if !tc.predicate(tc.err) {
			t.Errorf("predicate rejected %v", tc.err)
		}
		wrapped := fmt.Errorf("context: %w", tc.err)
		if !tc.predicate(wrapped) {
			t.Errorf("predicate should see through wrapping for %v", tc.err)
		}
	}
}

func TestKindOfForeignError(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("foreign errors default to Internal")
	}
	if IsNotFound(nil) {
		t.Fatal("nil is not NotFound")
	}
}

func TestInternalPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("persist user", cause)
	if !errors.Is(err, cause) {
		t.Fatal("Internal should wrap its cause")
	}
	if KindOf(err) != KindInternal {
		t.Fatalf("expected Internal kind, got %v", KindOf(err))
	}
}
