package persistence

import (
	"encoding/json"

	"github.com/khoahotran/portgen/pkg/apperror"
)

// toFields flattens a tagged struct into the map form the document stores
// accept, using the struct's json tags as field names.
func toFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apperror.NewInternal("failed to encode document fields", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, apperror.NewInternal("failed to encode document fields", err)
	}
	return fields, nil
}

// fromData decodes stored fields into out.
func fromData(data map[string]any, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return apperror.NewMalformed("stored document cannot be encoded", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.NewMalformed("stored document has an unexpected shape", err)
	}
	return nil
}

// toValue converts a typed value into plain JSON-compatible form.
func toValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apperror.NewInternal("failed to encode field value", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperror.NewInternal("failed to encode field value", err)
	}
	return out, nil
}
