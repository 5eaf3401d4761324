// Package fieldmap projects source document fields into the index schema
// using declarative mappings. All functions are pure transforms; no I/O.
package fieldmap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// Map applies the field mappings to a source document, producing the
// denormalised field set for an index record. Missing source fields map to
// nil values; transform failures abort the mapping.
func Map(doc domain.SourceDocument, mappings []domain.FieldMapping) (map[string]any, error) {
	fields := make(map[string]any, len(mappings))

	for _, m := range mappings {
		target := m.Target
		if target == "" {
			target = m.Source
		}

		value := doc.Fields[m.Source]
		if m.Transform != nil {
			transformed, err := m.Transform(value)
			if err != nil {
				return nil, fmt.Errorf("transform field %q: %w", m.Source, err)
			}
			fields[target] = transformed
			continue
		}
		fields[target] = value
	}

	return fields, nil
}

// ExtractSourceText concatenates the configured source fields into the text
// used for embedding generation. Each field is resolved through its
// transform when present; rich-text-shaped values without a transform are
// JSON-serialised by default. Fields are joined with blank lines.
func ExtractSourceText(doc domain.SourceDocument, fields []domain.SourceField) (string, error) {
	parts := make([]string, 0, len(fields))

	for _, f := range fields {
		value := doc.Fields[f.Field]

		var (
			text string
			err  error
		)
		if f.Transform != nil {
			text, err = f.Transform(value)
			if err != nil {
				return "", fmt.Errorf("transform field %q: %w", f.Field, err)
			}
		} else {
			text = defaultText(value)
		}

		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// defaultText stringifies a raw field value. Rich text editor state (a map
// carrying a "root" key) is serialised as JSON so structure survives until
// a caller supplies a real transform.
func defaultText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if _, ok := v["root"]; ok {
			data, err := json.Marshal(v)
			if err != nil {
				return ""
			}
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
