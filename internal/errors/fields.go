package errors

import (
	"bytes"
	"encoding/json"
)

// violations for one request field, in the order they were reported
type FieldError struct {
	Field    string
	Messages []string
}

// ordered field → messages mapping; marshals as a JSON object preserving insertion order
type FieldErrors []FieldError

// appends message to field, adding the field if it is new
func (f FieldErrors) Add(field, message string) FieldErrors {
	for i := range f {
		if f[i].Field == field {
			f[i].Messages = append(f[i].Messages, message)
			return f
		}
	}

	return append(f, FieldError{Field: field, Messages: []string{message}})
}

// reports whether field has at least one violation
func (f FieldErrors) Has(field string) bool {
	return f.Get(field) != nil
}

// returns the messages recorded for field
func (f FieldErrors) Get(field string) []string {
	for _, fe := range f {
		if fe.Field == field {
			return fe.Messages
		}
	}

	return nil
}

// returns the field names in order
func (f FieldErrors) Fields() []string {
	names := make([]string, len(f))
	for i, fe := range f {
		names[i] = fe.Field
	}

	return names
}

// deep copy
func (f FieldErrors) Clone() FieldErrors {
	if f == nil {
		return FieldErrors{}
	}

	out := make(FieldErrors, len(f))
	for i, fe := range f {
		out[i] = FieldError{Field: fe.Field, Messages: append([]string(nil), fe.Messages...)}
	}

	return out
}

func (f FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, fe := range f {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(fe.Field)
		if err != nil {
			return nil, err
		}

		messages := fe.Messages
		if messages == nil {
			messages = []string{}
		}

		value, err := json.Marshal(messages)
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
