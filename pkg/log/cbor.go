package log

import (
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// Capture files are a plain concatenation of CBOR items, one per event.
// Encoding is canonical so identical events produce identical bytes.
var (
	encMode = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	})
	decMode = mustDecMode(cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
		IntDec:    cbor.IntDecConvertSigned,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	m, err := opts.EncMode()
	if err != nil {
		panic("log: cbor encoder options: " + err.Error())
	}
	return m
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	m, err := opts.DecMode()
	if err != nil {
		panic("log: cbor decoder options: " + err.Error())
	}
	return m
}

// EncodeEvent encodes one event.
func EncodeEvent(event Event) ([]byte, error) {
	return encMode.Marshal(event)
}

// DecodeEvent decodes one event. Integer update values come back as int,
// the type the wire decoder produces.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := decMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	normalize(&event)
	return event, nil
}

// NewEncoder returns an encoder writing events to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a decoder reading events from r. Events read through
// it are not normalized; Reader does that.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

func normalize(event *Event) {
	if event.Update == nil {
		return
	}
	if n, ok := event.Update.Value.(int64); ok && n >= math.MinInt && n <= math.MaxInt {
		event.Update.Value = int(n)
	}
}
