package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Fields returns the override keys of EditParameters in declaration order.
func Fields() []string {
	t := reflect.TypeOf(EditParameters{})
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			names = append(names, name)
		}
	}
	return names
}

// Set overrides a single field by key. The value is parsed as a JSON literal
// when possible ("1.2", "true") and as a bare string otherwise, so enum values
// can be passed unquoted ("kodak-ektar").
//
// On error p is left unchanged.
func (p *EditParameters) Set(key, value string) error {
	return p.Apply(map[string]string{key: value})
}

// Apply overrides several fields at once. Keys are applied in sorted order.
// Setting temperature or tint without an explicit white_balance key toggles
// the white balance sub-stage as SetWhiteBalance does.
//
// Either every override is applied or none is.
func (p *EditParameters) Apply(overrides map[string]string) error {
	if len(overrides) == 0 {
		return nil
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(k)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(literal(overrides[k]))
	}
	buf.WriteByte('}')

	return p.merge(buf.Bytes(), keys)
}

// Merge overrides fields from a JSON object such as {"gamma": 1.2}.
func (p *EditParameters) Merge(raw json.RawMessage) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	keys := make([]string, 0, len(probe))
	for k := range probe {
		keys = append(keys, k)
	}
	return p.merge(raw, keys)
}

func (p *EditParameters) merge(raw []byte, keys []string) error {
	known := make(map[string]bool)
	for _, f := range Fields() {
		known[f] = true
	}
	for _, k := range keys {
		if !known[k] {
			return fmt.Errorf("%w: %q", ErrUnknownField, k)
		}
	}

	next := *p
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	touchedWB := false
	explicitWB := false
	for _, k := range keys {
		switch k {
		case "temperature", "tint":
			touchedWB = true
		case "white_balance":
			explicitWB = true
		}
	}
	if touchedWB && !explicitWB {
		next.SetWhiteBalance(next.Temperature, next.Tint)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

func literal(v string) []byte {
	v = strings.TrimSpace(v)
	if json.Valid([]byte(v)) {
		return []byte(v)
	}
	b, _ := json.Marshal(v)
	return b
}
