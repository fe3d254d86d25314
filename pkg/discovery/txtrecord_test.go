package discovery

import (
	"errors"
	"testing"
)

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"md=NAD C338", "fn=Living Room", "flag", "", "ve=05"})

	want := map[string]string{"md": "NAD C338", "fn": "Living Room", "flag": "", "ve": "05"}
	if len(txt) != len(want) {
		t.Fatalf("len = %d, want %d: %v", len(txt), len(want), txt)
	}
	for k, v := range want {
		if got, ok := txt[k]; !ok || got != v {
			t.Errorf("txt[%q] = %q, %v; want %q", k, got, ok, v)
		}
	}
}

func TestDecodeAmplifierTXT(t *testing.T) {
	info, err := DecodeAmplifierTXT(TXTRecordMap{"md": "NAD C338", "fn": "Office", "id": "abc123"})
	if err != nil {
		t.Fatalf("DecodeAmplifierTXT() error = %v", err)
	}
	if info.Model != "NAD C338" || info.Name != "Office" || info.ID != "abc123" {
		t.Errorf("unexpected info: %+v", info)
	}

	// Model matching is case-insensitive.
	if _, err := DecodeAmplifierTXT(TXTRecordMap{"md": "nad c658"}); err != nil {
		t.Errorf("lower-case model rejected: %v", err)
	}
}

func TestDecodeAmplifierTXTRejects(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
		want error
	}{
		{"missing model", TXTRecordMap{"fn": "Kitchen"}, ErrMissingRequired},
		{"other vendor", TXTRecordMap{"md": "Chromecast"}, ErrNotAmplifier},
		{"empty model", TXTRecordMap{"md": ""}, ErrNotAmplifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAmplifierTXT(tt.txt)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
