package discovery

import (
	"fmt"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// AmplifierInfo holds the TXT fields of an amplifier.
type AmplifierInfo struct {
	Model string
	Name  string
	ID    string
}

// DecodeAmplifierTXT extracts amplifier fields from Cast TXT records.
// Records whose model does not start with ModelPrefix are rejected with
// ErrNotAmplifier.
func DecodeAmplifierTXT(txt TXTRecordMap) (*AmplifierInfo, error) {
	model, ok := txt[TXTKeyModel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyModel)
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(model)), ModelPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrNotAmplifier, model)
	}

	return &AmplifierInfo{
		Model: model,
		Name:  txt[TXTKeyFriendlyName],
		ID:    txt[TXTKeyID],
	}, nil
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if found {
			txt[k] = v
		} else if k != "" {
			// Key without value (boolean flag)
			txt[k] = ""
		}
	}
	return txt
}
