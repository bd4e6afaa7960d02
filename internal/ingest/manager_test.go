package ingest

import (
	"testing"
	"time"
)

func TestBackoffCapsAt60Seconds(t *testing.T) {
	if got := backoff(0); got != 5*time.Second {
		t.Fatalf("backoff(0) = %v, want 5s", got)
	}
	if got := backoff(10); got != reconnectCap {
		t.Fatalf("backoff(10) = %v, want cap %v", got, reconnectCap)
	}
}

func TestBackoffGrowsMonotonically(t *testing.T) {
	prev := backoff(0)
	for attempt := 1; attempt < 6; attempt++ {
		cur := backoff(attempt)
		if cur < prev {
			t.Fatalf("backoff(%d)=%v should be >= backoff(%d)=%v", attempt, cur, attempt-1, prev)
		}
		prev = cur
	}
}
