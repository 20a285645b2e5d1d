package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errSlotTaken = New(KindConflict, "time slot already booked for this staff member")

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(KindValidation, "bad"), http.StatusBadRequest},
		{errSlotTaken, http.StatusBadRequest},
		{New(KindNotFound, "nope"), http.StatusNotFound},
		{New(KindForbidden, "no"), http.StatusForbidden},
		{New(KindUnauthorized, "who"), http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", New(KindNotFound, "pet not found")), http.StatusNotFound},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.err); got != tc.want {
			t.Fatalf("StatusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWith_KeepsSentinelIdentity(t *testing.T) {
	err := errSlotTaken.With("slot 09:00-10:00 already booked")
	if !errors.Is(err, errSlotTaken) {
		t.Fatalf("expected errors.Is to match sentinel")
	}
	if MessageOf(err) != "slot 09:00-10:00 already booked" {
		t.Fatalf("unexpected message: %q", MessageOf(err))
	}
	if KindOf(err) != KindConflict {
		t.Fatalf("unexpected kind: %s", KindOf(err))
	}
}

func TestInternal_HidesCauseFromMessage(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"))
	if MessageOf(err) != "internal error" {
		t.Fatalf("unexpected public message: %q", MessageOf(err))
	}
	if Internal(nil) != nil {
		t.Fatalf("Internal(nil) must be nil")
	}
}
