package firestore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindDouble
	KindBoolean
	KindTimestamp
	KindArray
	KindMap
)

// Value is one tagged field value in the Firestore REST wire format. Exactly
// one kind is set; marshalling and unmarshalling are symmetric except that
// integers are accepted as either a native number or a string on the way in.
type Value struct {
	Kind      Kind
	Str       string
	Int       int64
	Dbl       float64
	Bool      bool
	Timestamp time.Time
	Arr       []Value
	Map       map[string]Value
}

func Null() Value                       { return Value{Kind: KindNull} }
func String(s string) Value             { return Value{Kind: KindString, Str: s} }
func Integer(i int64) Value             { return Value{Kind: KindInteger, Int: i} }
func Double(f float64) Value            { return Value{Kind: KindDouble, Dbl: f} }
func Boolean(b bool) Value              { return Value{Kind: KindBoolean, Bool: b} }
func Timestamp(t time.Time) Value       { return Value{Kind: KindTimestamp, Timestamp: t.UTC()} }
func Array(items ...Value) Value        { return Value{Kind: KindArray, Arr: items} }
func Map(fields map[string]Value) Value { return Value{Kind: KindMap, Map: fields} }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte(`{"nullValue":null}`), nil
	case KindString:
		return json.Marshal(map[string]string{"stringValue": v.Str})
	case KindInteger:
		// the REST API carries int64 as a decimal string
		return json.Marshal(map[string]string{"integerValue": strconv.FormatInt(v.Int, 10)})
	case KindDouble:
		return json.Marshal(map[string]float64{"doubleValue": v.Dbl})
	case KindBoolean:
		return json.Marshal(map[string]bool{"booleanValue": v.Bool})
	case KindTimestamp:
		return json.Marshal(map[string]string{"timestampValue": v.Timestamp.UTC().Format(time.RFC3339Nano)})
	case KindArray:
		items := v.Arr
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(map[string]interface{}{"arrayValue": map[string]interface{}{"values": items}})
	case KindMap:
		fields := v.Map
		if fields == nil {
			fields = map[string]Value{}
		}
		return json.Marshal(map[string]interface{}{"mapValue": map[string]interface{}{"fields": fields}})
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &DecodeError{Detail: "value is not an object: " + err.Error()}
	}

	if _, ok := raw["nullValue"]; ok {
		*v = Null()
		return nil
	}
	if b, ok := raw["stringValue"]; ok {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return &DecodeError{Detail: "bad stringValue: " + err.Error()}
		}
		*v = String(s)
		return nil
	}
	if b, ok := raw["integerValue"]; ok {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			n, convErr := strconv.ParseInt(s, 10, 64)
			if convErr != nil {
				return &DecodeError{Detail: "bad integerValue string: " + convErr.Error()}
			}
			*v = Integer(n)
			return nil
		}
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return &DecodeError{Detail: "bad integerValue: " + err.Error()}
		}
		*v = Integer(n)
		return nil
	}
	if b, ok := raw["doubleValue"]; ok {
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return &DecodeError{Detail: "bad doubleValue: " + err.Error()}
		}
		*v = Double(f)
		return nil
	}
	if b, ok := raw["booleanValue"]; ok {
		var bl bool
		if err := json.Unmarshal(b, &bl); err != nil {
			return &DecodeError{Detail: "bad booleanValue: " + err.Error()}
		}
		*v = Boolean(bl)
		return nil
	}
	if b, ok := raw["timestampValue"]; ok {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return &DecodeError{Detail: "bad timestampValue: " + err.Error()}
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return &DecodeError{Detail: "bad timestampValue format: " + err.Error()}
		}
		*v = Timestamp(t)
		return nil
	}
	if b, ok := raw["arrayValue"]; ok {
		var wrapper struct {
			Values []Value `json:"values"`
		}
		if err := json.Unmarshal(b, &wrapper); err != nil {
			return &DecodeError{Detail: "bad arrayValue: " + err.Error()}
		}
		*v = Value{Kind: KindArray, Arr: wrapper.Values}
		return nil
	}
	if b, ok := raw["mapValue"]; ok {
		var wrapper struct {
			Fields map[string]Value `json:"fields"`
		}
		if err := json.Unmarshal(b, &wrapper); err != nil {
			return &DecodeError{Detail: "bad mapValue: " + err.Error()}
		}
		*v = Value{Kind: KindMap, Map: wrapper.Fields}
		return nil
	}
	return &DecodeError{Detail: "value has no recognized kind"}
}

// AsString returns the string content for string and timestamp kinds, and a
// decimal rendering for integers. Numeric strings are common on the inbound
// path where upstream writers were not strict about kinds.
func (v Value) AsString() (string, bool) {
	switch v.Kind {
	case KindString:
		return v.Str, true
	case KindInteger:
		return strconv.FormatInt(v.Int, 10), true
	case KindDouble:
		return strconv.FormatFloat(v.Dbl, 'f', -1, 64), true
	case KindTimestamp:
		return v.Timestamp.Format(time.RFC3339Nano), true
	}
	return "", false
}

func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case KindInteger:
		return v.Int, true
	case KindDouble:
		return int64(v.Dbl), true
	case KindString:
		if n, err := strconv.ParseInt(v.Str, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindDouble:
		return v.Dbl, true
	case KindInteger:
		return float64(v.Int), true
	case KindString:
		if f, err := strconv.ParseFloat(v.Str, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func (v Value) AsBool() (bool, bool) {
	if v.Kind == KindBoolean {
		return v.Bool, true
	}
	return false, false
}

func (v Value) AsTime() (time.Time, bool) {
	switch v.Kind {
	case KindTimestamp:
		return v.Timestamp, true
	case KindString:
		if t, err := time.Parse(time.RFC3339Nano, v.Str); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Document is the normalized shape the gateway hands to callers. ID is the
// last path segment of the Firestore resource name.
type Document struct {
	ID     string
	Fields map[string]Value
}

// Field does a case-insensitive first-letter-tolerant lookup: `email` also
// matches `Email`. Remote writers are not consistent about field casing.
func (d Document) Field(name string) (Value, bool) {
	if v, ok := d.Fields[name]; ok {
		return v, true
	}
	for k, v := range d.Fields {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return Value{}, false
}
