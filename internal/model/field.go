package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Unknown is the display marker for a value the device did not (or could not) report.
const Unknown = "N/A"

// Field is a single telemetry value as reported by the device. The device is
// loosely typed: the same key may arrive as a string, a number, a bool or a
// one-element list depending on firmware, so Field keeps the display text and,
// when the text is numeric, the parsed number.
//
// The zero Field is unknown.
type Field struct {
	Text  string
	Num   float64
	IsNum bool
	Known bool
	// FromNumber is set when the device sent a JSON number rather than text.
	FromNumber bool
}

// TextField returns a known field holding s. Numeric strings also carry Num.
func TextField(s string) Field {
	if s == Unknown {
		return Field{}
	}
	f := Field{Text: s, Known: true}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		f.Num = n
		f.IsNum = true
	}
	return f
}

// NumberField returns a known numeric field.
func NumberField(n float64) Field {
	return Field{
		Text:       strconv.FormatFloat(n, 'f', -1, 64),
		Num:        n,
		IsNum:      true,
		Known:      true,
		FromNumber: true,
	}
}

// String returns the display text, or Unknown.
func (f Field) String() string {
	if !f.Known {
		return Unknown
	}
	return f.Text
}

// UnmarshalJSON accepts any JSON scalar, null, or a list (rendered joined by ",").
func (f *Field) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode field: %w", err)
	}
	*f = fieldFromValue(v)
	return nil
}

// MarshalJSON writes numbers as numbers, unknown as null and everything else as a string.
func (f Field) MarshalJSON() ([]byte, error) {
	switch {
	case !f.Known:
		return []byte("null"), nil
	case f.IsNum && f.Text == strconv.FormatFloat(f.Num, 'f', -1, 64):
		return []byte(f.Text), nil
	default:
		return json.Marshal(f.Text)
	}
}

func fieldFromValue(v any) Field {
	switch t := v.(type) {
	case nil:
		return Field{}
	case string:
		return TextField(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return TextField(t.String())
		}
		return NumberField(n)
	case bool:
		return Field{Text: strconv.FormatBool(t), Known: true}
	case []any:
		// The device reports some values as tuples, e.g. disk_space: ["5000 MB"].
		if len(t) == 1 {
			return fieldFromValue(t[0])
		}
		return Field{Text: DisplayValue(t), Known: true}
	default:
		return Field{Text: DisplayValue(t), Known: true}
	}
}

// DisplayValue renders a decoded JSON value the way the dashboard shows it:
// lists are joined with "," and objects are shown as compact JSON.
func DisplayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = DisplayValue(e)
		}
		return strings.Join(parts, ",")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// LeadingNumber parses the numeric prefix of s, e.g. 55.3 from "55.3°C".
func LeadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
