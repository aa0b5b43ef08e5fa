package firestore

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValueCodec_RoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		in   Value
	}{
		{"string", String("hello")},
		{"integer", Integer(42)},
		{"negative integer", Integer(-7)},
		{"double", Double(3.25)},
		{"boolean", Boolean(true)},
		{"null", Null()},
		{"timestamp", Timestamp(ts)},
		{"array", Array(String("a"), Integer(2), Boolean(false))},
		{"map", Map(map[string]Value{"nom": String("x"), "statut": Integer(1)})},
		{"nested", Map(map[string]Value{"histo": Array(Map(map[string]Value{"statut": Integer(2)}))})},
	}
	for _, tc := range cases {
		raw, err := json.Marshal(tc.in)
		if err != nil {
			t.Fatalf("%s: marshal error: %v", tc.name, err)
		}
		var out Value
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s: unmarshal error: %v", tc.name, err)
		}
		if out.Kind != tc.in.Kind {
			t.Fatalf("%s: kind changed, expected %d got %d", tc.name, tc.in.Kind, out.Kind)
		}
		again, err := json.Marshal(out)
		if err != nil {
			t.Fatalf("%s: re-marshal error: %v", tc.name, err)
		}
		if string(again) != string(raw) {
			t.Fatalf("%s: codec not symmetric: %s vs %s", tc.name, raw, again)
		}
	}
}

func TestValueCodec_IntegerAcceptsNativeAndString(t *testing.T) {
	cases := []struct {
		raw      string
		expected int64
	}{
		{`{"integerValue":"123"}`, 123},
		{`{"integerValue":123}`, 123},
		{`{"integerValue":"-5"}`, -5},
	}
	for _, tc := range cases {
		var v Value
		if err := json.Unmarshal([]byte(tc.raw), &v); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if v.Kind != KindInteger || v.Int != tc.expected {
			t.Fatalf("%s: expected integer %d, got kind=%d int=%d", tc.raw, tc.expected, v.Kind, v.Int)
		}
	}
}

func TestValueCodec_UnknownKindIsDecodeError(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"geoPointValue":{"latitude":1}}`), &v)
	if err == nil {
		t.Fatal("expected an error for an unsupported kind")
	}
	if !IsDecodeError(err) {
		t.Fatalf("expected DecodeError, got %T: %v", err, err)
	}
}

func TestValueAccessors_ToleratesStringEncodedNumbers(t *testing.T) {
	if n, ok := String("17").AsInt(); !ok || n != 17 {
		t.Fatalf("AsInt on numeric string failed: %d %v", n, ok)
	}
	if f, ok := String("2.5").AsFloat(); !ok || f != 2.5 {
		t.Fatalf("AsFloat on numeric string failed: %f %v", f, ok)
	}
	if _, ok := String("abc").AsInt(); ok {
		t.Fatal("AsInt should reject non-numeric strings")
	}
	if s, ok := Integer(9).AsString(); !ok || s != "9" {
		t.Fatalf("AsString on integer failed: %q %v", s, ok)
	}
}

func TestDocumentField_CaseInsensitive(t *testing.T) {
	doc := Document{ID: "u1", Fields: map[string]Value{"Email": String("a@b.mg")}}
	v, ok := doc.Field("email")
	if !ok {
		t.Fatal("expected Email to match email lookup")
	}
	if v.Str != "a@b.mg" {
		t.Fatalf("unexpected value %q", v.Str)
	}
	if _, ok := doc.Field("nom"); ok {
		t.Fatal("absent field must not match")
	}
}
