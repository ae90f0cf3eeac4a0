package document

import (
	"slices"

	"github.com/roach88/reqlbridge/internal/ir"
)

// Document is a mapping of field names to typed values: the unit
// exchanged with the database.
type Document map[string]Value

func (Document) value() {}

// NewDocument decodes an object node into a Document.
// Anything that does not decode to a plain document is a ConversionError,
// including objects carrying an extended-type discriminator.
func NewDocument(node ir.IRValue) (Document, error) {
	v, err := Decode(node)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(Document)
	if !ok {
		return nil, &ConversionError{Value: node, Expected: "object", Reason: "not a document"}
	}
	return doc, nil
}

// Host returns the document as a map[string]any.
func (d Document) Host() any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = hostOf(v)
	}
	return out
}

// Node encodes the document back into an object node.
func (d Document) Node() ir.IRObject {
	return Encode(d).(ir.IRObject)
}

// Keys returns the field names in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get returns the value stored under key.
func (d Document) Get(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}
