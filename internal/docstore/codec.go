package docstore

import (
	"encoding/json"
	"fmt"
)

// Encode converts a typed value into a storable document by round-tripping
// through JSON. Decimal amounts persist as strings, never binary floats.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode fills a typed value from a stored document.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Clone deep-copies a document so callers cannot alias stored state.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out, err := Encode(doc)
	if err != nil {
		// A document read back from storage is always JSON-compatible.
		panic(err)
	}
	return out
}
