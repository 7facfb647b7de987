package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func createTestScheduler(t *testing.T, schedule string) (*Scheduler, *FileStore) {
	t.Helper()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "snapshots"), nil)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	gen := NewGenerator(&fakeSource{}, GeneratorConfig{})
	return NewScheduler(gen, store, schedule), store
}

func TestScheduler_RunOnce(t *testing.T) {
	sched, store := createTestScheduler(t, "")

	n, err := sched.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if n == 0 || n != store.Len() {
		t.Errorf("Expected %d snapshots in store, got %d", n, store.Len())
	}

	last, count, lastErr := sched.LastRun()
	if last.IsZero() || count != n || lastErr != nil {
		t.Errorf("Expected LastRun to record the run, got (%v, %d, %v)", last, count, lastErr)
	}
}

func TestScheduler_OnRun(t *testing.T) {
	sched, _ := createTestScheduler(t, "")

	var calls, got int
	sched.OnRun(func(count int, d time.Duration, err error) {
		calls++
		got = count
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	n, err := sched.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if calls != 1 || got != n {
		t.Errorf("Expected one callback with count %d, got %d calls with count %d", n, calls, got)
	}
}

func TestScheduler_RunOnceFailureKeepsSnapshots(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "snapshots"), nil)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()
	if err := store.Replace(ctx, []Snapshot{mustSnapshot(t, "funds", 1)}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	sched := NewScheduler(NewGenerator(&fakeSource{failStats: true}, GeneratorConfig{}), store, "")
	if _, err := sched.RunOnce(ctx); err == nil {
		t.Fatal("Expected RunOnce to fail")
	}
	if _, ok := store.Lookup(ctx, "funds"); !ok {
		t.Error("Expected existing snapshots to be kept after a failed run")
	}
	if _, _, lastErr := sched.LastRun(); lastErr == nil {
		t.Error("Expected LastRun to record the error")
	}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantErr     bool
		wantRunning bool
	}{
		{"empty schedule", "", false, false},
		{"every six hours", "0 */6 * * *", false, true},
		{"invalid", "not a schedule", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, _ := createTestScheduler(t, tt.schedule)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := sched.Start(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if sched.IsRunning() != tt.wantRunning {
				t.Errorf("Expected running=%v, got %v", tt.wantRunning, sched.IsRunning())
			}

			if tt.wantRunning {
				next := sched.NextRun()
				if next == nil || !next.After(time.Now()) {
					t.Errorf("Expected a future next run, got %v", next)
				}
				sched.Stop()
				if sched.IsRunning() {
					t.Error("Expected scheduler to stop")
				}
			}
		})
	}
}
