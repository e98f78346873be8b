package store

import (
	"fmt"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// columnKeys are document fields held in their own columns. They are
// stripped from stored documents and added back when rows are read.
var columnKeys = []string{"_id", "id", "userId", "createdAt", "updatedAt"}

// marshalDoc converts a document to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so equal documents store identical bytes.
func marshalDoc(doc ir.Map) (string, error) {
	data, err := ir.MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("marshal doc: %w", err)
	}
	return string(data), nil
}

// unmarshalDoc parses stored JSON back into a document.
func unmarshalDoc(data string) (ir.Map, error) {
	if data == "" {
		return ir.Map{}, nil
	}
	v, err := ir.DecodeJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal doc: %w", err)
	}
	m, ok := v.(ir.Map)
	if !ok {
		return nil, fmt.Errorf("unmarshal doc: stored value is %T, not an object", v)
	}
	return m, nil
}

// storedDoc strips column fields and undefined values from an event.
func storedDoc(event ir.Map) ir.Map {
	doc := make(ir.Map, len(event))
	for k, v := range event {
		if _, ok := v.(ir.Undefined); ok {
			continue
		}
		doc[k] = v
	}
	for _, k := range columnKeys {
		delete(doc, k)
	}
	return doc
}

// eventRow is one scanned row of the events table.
type eventRow struct {
	ID        string
	UserID    string
	Doc       ir.Map
	CreatedAt string
	UpdatedAt string
}

// toMap renders the row as it is returned to callers: the document with
// the column fields added.
func (r eventRow) toMap() ir.Map {
	out := r.Doc.Clone()
	if out == nil {
		out = ir.Map{}
	}
	out["id"] = ir.Str(r.ID)
	if r.UserID != "" {
		out["userId"] = ir.Str(r.UserID)
	}
	out["createdAt"] = ir.Str(r.CreatedAt)
	out["updatedAt"] = ir.Str(r.UpdatedAt)
	return out
}

// applyUpdates shallow-merges updates into doc. An Undefined value removes
// the key. Column fields are never written.
func applyUpdates(doc, updates ir.Map) ir.Map {
	out := doc.Clone()
	if out == nil {
		out = ir.Map{}
	}
	for k, v := range updates {
		if _, ok := v.(ir.Undefined); ok {
			delete(out, k)
			continue
		}
		out[k] = ir.CloneLiteral(v)
	}
	for _, k := range columnKeys {
		delete(out, k)
	}
	return out
}
