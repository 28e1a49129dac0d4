package flows

import (
	"context"
	"errors"
	"testing"
)

func TestRunAssertRecoverySingleReplay(t *testing.T) {
	relogins, replays := 0, 0
	result, recovered, err := RunAssertRecovery(context.Background(), ReloginDeps[string]{
		ConsumeBudget: func() bool { return true },
		Relogin: func(ctx context.Context) error {
			relogins++
			return nil
		},
		Retry: func(ctx context.Context) (string, error) {
			replays++
			return "replayed", nil
		},
	})
	if err != nil {
		t.Fatalf("recovery failed: %v", err)
	}
	if !recovered || result != "replayed" {
		t.Fatalf("expected recovered replay, got recovered=%v result=%q", recovered, result)
	}
	if relogins != 1 || replays != 1 {
		t.Fatalf("expected exactly one relogin and one replay, got %d/%d", relogins, replays)
	}
}

func TestRunAssertRecoveryBudgetSpent(t *testing.T) {
	_, recovered, err := RunAssertRecovery(context.Background(), ReloginDeps[string]{
		ConsumeBudget: func() bool { return false },
		Relogin: func(ctx context.Context) error {
			t.Fatal("relogin must not run without budget")
			return nil
		},
		Retry: func(ctx context.Context) (string, error) {
			t.Fatal("retry must not run without budget")
			return "", nil
		},
	})
	if recovered || err != nil {
		t.Fatalf("expected unrecovered no-op, got recovered=%v err=%v", recovered, err)
	}
}

func TestRunAssertRecoveryReloginFailureIsNotRecovered(t *testing.T) {
	_, recovered, err := RunAssertRecovery(context.Background(), ReloginDeps[string]{
		ConsumeBudget: func() bool { return true },
		Relogin: func(ctx context.Context) error {
			return errors.New("wrong password")
		},
		Retry: func(ctx context.Context) (string, error) {
			t.Fatal("retry must not run after a failed relogin")
			return "", nil
		},
	})
	if recovered || err != nil {
		t.Fatalf("caller must surface the original error: recovered=%v err=%v", recovered, err)
	}
}

func TestRunAssertRecoveryReplayErrorIsFinal(t *testing.T) {
	replayErr := errors.New("still failing")
	_, recovered, err := RunAssertRecovery(context.Background(), ReloginDeps[string]{
		ConsumeBudget: func() bool { return true },
		Relogin:       func(ctx context.Context) error { return nil },
		Retry: func(ctx context.Context) (string, error) {
			return "", replayErr
		},
	})
	if !recovered {
		t.Fatal("a completed replay counts as recovered")
	}
	if !errors.Is(err, replayErr) {
		t.Fatalf("expected the replay error, got %v", err)
	}
}
