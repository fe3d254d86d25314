package connection

import (
	"context"
	"testing"
	"time"
)

func TestDelay(t *testing.T) {
	t.Run("Flat", func(t *testing.T) {
		d := NewDelay(5 * time.Second)
		for i := 0; i < 5; i++ {
			if got := d.Next(); got != 5*time.Second {
				t.Errorf("Attempt %d: delay = %v, want 5s", i, got)
			}
		}
		if d.Attempts() != 5 {
			t.Errorf("Attempts() = %d, want 5", d.Attempts())
		}
	})

	t.Run("Reset", func(t *testing.T) {
		d := NewDelay(time.Second)
		d.Next()
		d.Next()
		d.Reset()
		if d.Attempts() != 0 {
			t.Errorf("Attempts() after Reset = %d", d.Attempts())
		}
	})

	t.Run("Default", func(t *testing.T) {
		if got := NewDelay(0).Interval(); got != DefaultReconnectDelay {
			t.Errorf("Interval() = %v, want %v", got, DefaultReconnectDelay)
		}
	})

	t.Run("WaitElapses", func(t *testing.T) {
		d := NewDelay(20 * time.Millisecond)
		start := time.Now()
		if !d.Wait(context.Background()) {
			t.Fatal("Wait returned false")
		}
		if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
			t.Errorf("Wait returned after %v", elapsed)
		}
	})

	t.Run("WaitCancelled", func(t *testing.T) {
		d := NewDelay(time.Hour)
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		if d.Wait(ctx) {
			t.Error("Wait should return false on cancellation")
		}
	})
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnecting, "CONNECTING"},
		{StateConnected, "CONNECTED"},
		{StateReconnecting, "RECONNECTING"},
		{StateStopped, "STOPPED"},
		{State(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
