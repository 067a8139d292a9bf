package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultBackoff_Schedules(t *testing.T) {
	tests := []struct {
		name    string
		class   Class
		attempt int
		want    time.Duration
	}{
		{"blocked attempt 1", ClassBlocked, 1, 2 * time.Second},
		{"blocked attempt 2", ClassBlocked, 2, 4 * time.Second},
		{"blocked attempt 3", ClassBlocked, 3, 8 * time.Second},
		{"challenge attempt 1", ClassChallenge, 1, 4 * time.Second},
		{"challenge attempt 2", ClassChallenge, 2, 8 * time.Second},
		{"challenge attempt 3", ClassChallenge, 3, 16 * time.Second},
		{"network attempt 1", ClassNetwork, 1, 1 * time.Second},
		{"network attempt 2", ClassNetwork, 2, 2 * time.Second},
		{"network attempt 3", ClassNetwork, 3, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := defaultBackoff(tt.class, tt.attempt); got != tt.want {
				t.Errorf("defaultBackoff(%v, %d) = %v, want %v", tt.class, tt.attempt, got, tt.want)
			}
		})
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	var sleeps []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Backoff:     defaultBackoff,
		sleep: func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	}

	calls := 0
	got, err := Do(context.Background(), p, func(attempt int) (string, Class, error) {
		calls++
		if attempt < 3 {
			return "", ClassBlocked, errors.New("blocked")
		}
		return "payload", ClassOK, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "payload" {
		t.Errorf("result = %q, want %q", got, "payload")
	}
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("slept %d times, want %d", len(sleeps), len(want))
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, sleeps[i], want[i])
		}
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	p := Policy{
		MaxAttempts: 3,
		Backoff:     defaultBackoff,
		sleep:       func(context.Context, time.Duration) error { return nil },
	}

	wantErr := errors.New("still down")
	calls := 0
	_, err := Do(context.Background(), p, func(int) (int, Class, error) {
		calls++
		return 0, ClassNetwork, wantErr
	})
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want last attempt's error", err)
	}
}

func TestDo_FatalStopsImmediately(t *testing.T) {
	p := Policy{
		MaxAttempts: 3,
		Backoff:     defaultBackoff,
		sleep: func(context.Context, time.Duration) error {
			t.Fatal("fatal class must not sleep")
			return nil
		},
	}

	calls := 0
	_, err := Do(context.Background(), p, func(int) (int, Class, error) {
		calls++
		return 0, ClassFatal, errors.New("bad input")
	})
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	if err == nil {
		t.Error("expected the fatal error to surface")
	}
}

func TestDo_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts: 3,
		Backoff:     defaultBackoff,
		sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	_, err := Do(ctx, p, func(int) (int, Class, error) {
		return 0, ClassNetwork, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
