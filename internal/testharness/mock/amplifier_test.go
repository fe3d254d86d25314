package mock_test

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/nadtcp/nadtcp-go/internal/testharness/mock"
)

func dial(t *testing.T, amp *mock.Amplifier) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", amp.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func readLine(t *testing.T, conn net.Conn, r *bufio.Reader) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return strings.TrimRight(line, "\n")
}

func TestAmplifierRootQuery(t *testing.T) {
	amp, err := mock.NewAmplifier()
	if err != nil {
		t.Fatal(err)
	}
	defer amp.Close()

	conn, r := dial(t, amp)
	if _, err := conn.Write([]byte("Main?\n")); err != nil {
		t.Fatal(err)
	}

	for _, kv := range mock.DefaultState {
		if got, want := readLine(t, conn, r), kv.Name+"="+kv.Value; got != want {
			t.Errorf("line = %q, want %q", got, want)
		}
	}
	if !amp.WaitReceived("Main?", time.Second) {
		t.Error("query not recorded")
	}
}

func TestAmplifierCommands(t *testing.T) {
	amp, err := mock.NewAmplifier()
	if err != nil {
		t.Fatal(err)
	}
	defer amp.Close()

	conn, r := dial(t, amp)

	tests := []struct {
		send string
		want string
	}{
		{"Main.Mute=On", "Main.Mute=On"},
		{"Main.Mute?", "Main.Mute=On"},
		{"Main.Volume+", "Main.Volume=-39"},
		{"Main.Volume-", "Main.Volume=-40"},
		{"Main.Power-", "Main.Power=Off"},
	}
	for _, tt := range tests {
		if _, err := conn.Write([]byte(tt.send + "\n")); err != nil {
			t.Fatal(err)
		}
		if got := readLine(t, conn, r); got != tt.want {
			t.Errorf("%s -> %q, want %q", tt.send, got, tt.want)
		}
	}

	if v, _ := amp.GetState("Main.Mute"); v != "On" {
		t.Errorf("Main.Mute state = %q", v)
	}
}

func TestAmplifierConnectionsAndClose(t *testing.T) {
	amp, err := mock.NewAmplifier()
	if err != nil {
		t.Fatal(err)
	}

	dial(t, amp)
	dial(t, amp)
	if !amp.WaitConnections(2, time.Second) {
		t.Fatalf("Connections() = %d, want 2", amp.Connections())
	}
	if len(amp.AcceptTimes()) != 2 {
		t.Error("accept times not recorded")
	}

	if err := amp.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := amp.Send("Main.Power=On"); err != mock.ErrAmplifierClosed {
		t.Errorf("Send after Close = %v", err)
	}
}
