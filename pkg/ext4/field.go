package ext4

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is the interpreted value of a FieldRecord: either an unsigned integer
// or a string.
type Value struct {
	num    uint64
	text   string
	isText bool
}

func Uint(x uint64) Value { return Value{num: x} }

func Text(s string) Value { return Value{text: s, isText: true} }

func (v Value) IsText() bool { return v.isText }

// Uint returns the integer value, or 0 for text values.
func (v Value) Uint() uint64 {
	if v.isText {
		return 0
	}
	return v.num
}

func (v Value) String() string {
	if v.isText {
		return v.text
	}
	return strconv.FormatUint(v.num, 10)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isText {
		return json.Marshal(v.text)
	}
	return json.Marshal(v.num)
}

// FieldRecord is a single decoded on-disk field.
type FieldRecord struct {
	Key   string
	Label string
	Raw   []byte
	Value Value
}

// Hex returns the raw bytes as lowercase hexadecimal in on-disk order.
func (f FieldRecord) Hex() string { return hex.EncodeToString(f.Raw) }

func (f FieldRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key   string `json:"key"`
		Label string `json:"label"`
		Hex   string `json:"hex"`
		Value Value  `json:"value"`
	}{
		Key:   f.Key,
		Label: f.Label,
		Hex:   f.Hex(),
		Value: f.Value,
	})
}

// Fields is an ordered mapping of field key to FieldRecord.
type Fields []FieldRecord

func (fields Fields) Get(key string) (FieldRecord, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldRecord{}, false
}

// Uint returns the integer value of the field at `key`, or 0 if the field is
// missing or holds text.
func (fields Fields) Uint(key string) uint64 {
	f, _ := fields.Get(key)
	return f.Value.Uint()
}

func (fields Fields) Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// fieldReader declares fields against a buffer. The first error sticks and
// every later declaration becomes a no-op, so decoders can list their layout
// without checking errors line by line.
type fieldReader struct {
	b      []byte
	fields Fields
	err    error
}

func (r *fieldReader) add(key, label string, offset, width int, v func(raw []byte) (Value, error)) {
	if r.err != nil {
		return
	}
	raw, err := Slice(r.b, offset, width)
	if err != nil {
		r.err = fieldErr(key, err)
		return
	}
	value, err := v(raw)
	if err != nil {
		r.err = fieldErr(key, err)
		return
	}
	r.fields = append(r.fields, FieldRecord{
		Key:   key,
		Label: label,
		Raw:   append([]byte(nil), raw...),
		Value: value,
	})
}

func (r *fieldReader) uint(key, label string, offset, width int) {
	r.add(key, label, offset, width, func(raw []byte) (Value, error) {
		x, err := ReadUint(raw, 0, width)
		return Uint(x), err
	})
}

// shifted decodes a `1024 << exponent` size field.
func (r *fieldReader) shifted(key, label string, offset, width int) {
	r.add(key, label, offset, width, func(raw []byte) (Value, error) {
		x, err := ReadUint(raw, 0, width)
		return Uint(1024 << x), err
	})
}

// hexUint decodes an integer and reports it in hexadecimal.
func (r *fieldReader) hexUint(key, label string, offset, width int) {
	r.add(key, label, offset, width, func(raw []byte) (Value, error) {
		x, err := ReadUint(raw, 0, width)
		return Text(strconv.FormatUint(x, 16)), err
	})
}

func (r *fieldReader) hexBytes(key, label string, offset, width int) {
	r.add(key, label, offset, width, func(raw []byte) (Value, error) {
		return Text(hex.EncodeToString(raw)), nil
	})
}

func (r *fieldReader) text(key, label string, offset, width int) {
	r.add(key, label, offset, width, func(raw []byte) (Value, error) {
		return Text(trimPadding(string(raw))), nil
	})
}

// last returns the `n`th most recently declared field.
func (r *fieldReader) last(n int) FieldRecord {
	return r.fields[len(r.fields)-n]
}

func (f FieldRecord) rawUint() uint64 {
	x, _ := ReadUint(f.Raw, 0, len(f.Raw))
	return x
}

func trimPadding(s string) string {
	return strings.TrimFunc(s, func(c rune) bool {
		return c == 0 || c == ' ' || c == '\t' || c == '\n' || c == '\r'
	})
}

func fieldErr(key string, err error) error {
	return fmt.Errorf("field `%s`: %w", key, err)
}
