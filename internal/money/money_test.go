package money

import (
	"encoding/json"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Decimal
	}{
		{"whole", 100},
		{"fraction", 106.5},
		{"zero", 0},
		{"negative", -42.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}

			var out Decimal
			if err := json.Unmarshal(b, &out); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if out != tt.in {
				t.Fatalf("round trip = %v, want %v", out, tt.in)
			}
		})
	}
}

func TestUnmarshalBareNumber(t *testing.T) {
	var d Decimal
	if err := json.Unmarshal([]byte(`15`), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if d != 15 {
		t.Fatalf("d = %v, want 15", d)
	}
}

type wrapper struct {
	Qty Decimal `json:"qty"`
}

func TestEmbeddedInStruct(t *testing.T) {
	b := []byte(`{"qty":"15.0"}`)
	var w wrapper
	if err := json.Unmarshal(b, &w); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if w.Qty != 15 {
		t.Fatalf("Qty = %v, want 15", w.Qty)
	}

	out, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"qty":"15"}` {
		t.Fatalf("Marshal = %s", out)
	}
}
