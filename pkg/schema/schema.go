// Package schema defines the shape of negotiated JSON schemas: the accepted
// draft structure, the structural checks applied to model output and the
// unwrap rule for caller-supplied schema objects.
package schema

// Object is an accepted schema draft: a named, described JSON schema
// definition.
type Object struct {
	Name        string
	Description string
	Definition  map[string]any
}

// FromMap converts a validated draft into an Object. It returns the first
// structural violation as an error if the draft is not acceptable.
func FromMap(m map[string]any) (*Object, error) {
	if err := ValidateDraft(m); err != nil {
		return nil, err
	}

	return &Object{
		Name:        m["name"].(string),
		Description: m["description"].(string),
		Definition:  m["schema"].(map[string]any),
	}, nil
}

// Map returns the wire form of the object: a JSON object with name,
// description and schema keys.
func (o *Object) Map() map[string]any {
	return map[string]any{
		"name":        o.Name,
		"description": o.Description,
		"schema":      o.Definition,
	}
}

// ExtractOnly unwraps a caller-supplied schema object one level: when v has a
// "schema" key whose value is itself an object, that value is returned;
// otherwise v is returned unchanged. The unwrap is never recursive.
func ExtractOnly(v map[string]any) map[string]any {
	if inner, ok := v["schema"].(map[string]any); ok {
		return inner
	}
	return v
}
