package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Resource string

const (
	ResourcePatient           Resource = "Patient"
	ResourceCondition         Resource = "Condition"
	ResourceObservation       Resource = "Observation"
	ResourceMedicationRequest Resource = "MedicationRequest"
)

type Parameter struct {
	Key   string
	Value string
}

// Parameters keeps search parameters in assembly order. It is encoded as a
// JSON object whose keys follow that order.
type Parameters []Parameter

func (params Parameters) Get(key string) (string, bool) {
	for _, p := range params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func (params Parameters) Keys() []string {
	keys := make([]string, len(params))
	for i, p := range params {
		keys[i] = p.Key
	}
	return keys
}

func (params Parameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range params {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (params *Parameters) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("parameters: expected object, got %v", tok)
	}
	out := Parameters{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("parameters: unexpected key %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("parameters: value of %q: %w", key, err)
		}
		out = append(out, Parameter{Key: key, Value: value})
	}
	*params = out
	return nil
}

type FHIRQuery struct {
	Method     string     `json:"method"`
	Resource   Resource   `json:"resource"`
	Parameters Parameters `json:"parameters"`
	Endpoint   string     `json:"endpoint"`
	Gaps       []string   `json:"gaps"`
}
