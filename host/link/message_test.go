package link

import (
	"errors"
	"testing"

	"cyclotron/protocol"
)

func TestParseSignature(t *testing.T) {
	m, err := parseSignature("ring_set_color oid=%c red=%c green=%c blue=%c brightness=%c", 7)
	if err != nil {
		t.Fatalf("parseSignature: %v", err)
	}
	if m.ID != 7 || m.Name != "ring_set_color" || len(m.Params) != 5 {
		t.Errorf("message = %+v", m)
	}

	if _, err := parseSignature("bad oid", 1); err == nil {
		t.Error("expected error for parameter without format")
	}
	if m, err := parseSignature("get_clock", 2); err != nil || len(m.Params) != 0 {
		t.Errorf("no-arg signature: %+v, %v", m, err)
	}
}

func TestEncodeDecode(t *testing.T) {
	m, err := parseSignature("sample oid=%c pos=%i data=%*s", 4)
	if err != nil {
		t.Fatal(err)
	}

	enc, err := m.Encode(Args{"oid": uint8(2), "pos": -300, "data": "hi"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := protocol.NewScratchOutput()
	enc(out)

	r, err := m.Decode(out.Result())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Uint("oid") != 2 {
		t.Errorf("oid = %d", r.Uint("oid"))
	}
	if n, _ := r.Get("pos"); n != -300 {
		t.Errorf("pos = %d, want -300", n)
	}
	if got := r.String(); got != `sample oid=2 pos=-300 data="hi"` {
		t.Errorf("String() = %s", got)
	}
}

func TestEncodeErrors(t *testing.T) {
	m, _ := parseSignature("ring_start oid=%c revolution_ms=%hu", 5)

	tests := []struct {
		name string
		args Args
		want error
	}{
		{"missing", Args{"oid": 1}, ErrMissingArg},
		{"unknown", Args{"oid": 1, "revolution_ms": 10, "speed": 3}, ErrUnknownArg},
		{"bad value", Args{"oid": "one", "revolution_ms": 10}, ErrBadValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Encode(tt.args); !errors.Is(err, tt.want) {
				t.Errorf("Encode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	m, _ := parseSignature("clock clock=%u", 3)
	if _, err := m.Decode(nil); err == nil {
		t.Error("expected error decoding empty payload")
	}
}
