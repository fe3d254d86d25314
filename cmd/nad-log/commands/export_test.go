package commands

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nadtcp/nadtcp-go/pkg/log"
)

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	output := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", output); err != nil {
		t.Fatalf("RunExport: %v", err)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var obj map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &obj); err != nil {
			t.Fatalf("line %d is not JSON: %v", lines+1, err)
		}
		if _, ok := obj["Timestamp"]; !ok {
			t.Errorf("line %d missing Timestamp: %v", lines+1, obj)
		}
		lines++
	}
	if lines != len(sessionEvents()) {
		t.Errorf("exported %d lines, want %d", lines, len(sessionEvents()))
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	output := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", output); err != nil {
		t.Fatalf("RunExport: %v", err)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != len(sessionEvents())+1 {
		t.Fatalf("got %d records, want %d", len(records), len(sessionEvents())+1)
	}
	if records[0][0] != "timestamp" {
		t.Errorf("header = %v", records[0])
	}

	// Row 6 is the volume update.
	row := records[6]
	if row[5] != "Update" || row[6] != "Main.Volume=-40" {
		t.Errorf("volume row = %v", row)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestExportTranscript(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	output := filepath.Join(t.TempDir(), "out.txt")

	if err := RunExport(path, FormatTranscript, output); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	want := "20:00:00.005 > Main?\n" +
		"20:00:00.020 < Main.Power=On\n" +
		"20:00:00.030 < Main.Volume=-40\n"
	if string(data) != want {
		t.Errorf("transcript =\n%s\nwant\n%s", data, want)
	}
}

func TestEventDetailCleared(t *testing.T) {
	got := eventDetail(log.Event{Notification: &log.NotificationEvent{Cleared: true}})
	if got != "cleared" {
		t.Errorf("eventDetail = %q, want cleared", got)
	}
}
