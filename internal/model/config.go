package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProtectedConfigKey is reported by the device but can never be toggled remotely.
const ProtectedConfigKey = "CONFIG_LOCAL_MODE"

// ConfigEntry is a single device configuration value. Value holds the decoded
// JSON value: bool, json.Number, string, nil or []any.
type ConfigEntry struct {
	Key   string
	Value any
}

// IsBool reports whether the entry holds a boolean.
func (e ConfigEntry) IsBool() bool {
	_, ok := e.Value.(bool)
	return ok
}

// Toggleable reports whether a toggle control may be offered for the entry.
func (e ConfigEntry) Toggleable() bool {
	return e.Key != ProtectedConfigKey && e.IsBool()
}

// String renders the entry as "KEY: value".
func (e ConfigEntry) String() string {
	return e.Key + ": " + DisplayValue(e.Value)
}

// ConfigMap is the device configuration in the order the device sent it.
type ConfigMap []ConfigEntry

// Get returns the entry for key.
func (m ConfigMap) Get(key string) (ConfigEntry, bool) {
	for _, e := range m {
		if e.Key == key {
			return e, true
		}
	}
	return ConfigEntry{}, false
}

// Set replaces the value for key, appending a new entry if it does not exist.
func (m *ConfigMap) Set(key string, value any) {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, ConfigEntry{Key: key, Value: value})
}

// UnmarshalJSON decodes a JSON object keeping its key order.
func (m *ConfigMap) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode config: expected object, got %v", tok)
	}

	out := ConfigMap{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode config key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode config: unexpected key %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode config value %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	*m = out
	return nil
}

// MarshalJSON encodes the map as a JSON object in entry order.
func (m ConfigMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encode config value %q: %w", e.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
