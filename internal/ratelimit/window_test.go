package ratelimit

import (
	"testing"
	"time"
)

func TestWindowKey(t *testing.T) {
	l := NewLimiter(nil, "ingest", 5, time.Minute)

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }
	first := l.windowKey("10.0.0.1")

	l.now = func() time.Time { return start.Add(59 * time.Second) }
	if got := l.windowKey("10.0.0.1"); got != first {
		t.Errorf("same window produced %q and %q", first, got)
	}

	l.now = func() time.Time { return start.Add(time.Minute) }
	if got := l.windowKey("10.0.0.1"); got == first {
		t.Errorf("next window reused key %q", got)
	}

	if got := l.windowKey("10.0.0.2"); got == l.windowKey("10.0.0.1") {
		t.Error("different callers share a key")
	}
}
