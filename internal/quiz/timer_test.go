package quiz

import (
	"testing"
	"time"
)

func TestRemaining(t *testing.T) {
	ends := t0.Add(90 * time.Second).UnixMilli()

	if got := Remaining(t0, ends); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
	if got := Remaining(t0.Add(2*time.Minute), ends); got != 0 {
		t.Fatalf("expected clamp to 0, got %s", got)
	}
	if !Expired(time.UnixMilli(ends+1), ends) {
		t.Fatal("expected expired one millisecond after the deadline")
	}
	if Expired(t0, ends) {
		t.Fatal("not expired yet")
	}
}
