package schema

import (
	"errors"
	"fmt"
)

// ValidateDraft checks whether v has the structure of an acceptable schema
// draft: a JSON object with non-empty "name" and "description" strings and a
// "schema" object declaring a "type"; a type of "object" must define at least
// one entry under "properties". The returned error describes the first
// violation in plain language so it can be sent back to the model as
// correction feedback. A nil error means the draft is acceptable.
func ValidateDraft(v any) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return errors.New("the response must be a single JSON object")
	}

	for _, key := range []string{"name", "description", "schema"} {
		if _, ok := obj[key]; !ok {
			return fmt.Errorf("the object is missing the %q key", key)
		}
	}

	for _, key := range []string{"name", "description"} {
		s, ok := obj[key].(string)
		if !ok || s == "" {
			return fmt.Errorf("%q must be a non-empty string", key)
		}
	}

	def, ok := obj["schema"].(map[string]any)
	if !ok {
		return errors.New(`"schema" must be a JSON object`)
	}

	typ, ok := def["type"].(string)
	if !ok || typ == "" {
		return errors.New(`"schema" must declare a "type"`)
	}

	if typ == "object" {
		props, ok := def["properties"].(map[string]any)
		if !ok || len(props) == 0 {
			return errors.New(`a "schema" of type "object" must define at least one entry under "properties"`)
		}
	}

	return nil
}
