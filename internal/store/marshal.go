package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/reqlbridge/internal/ir"
)

// marshalResult converts a result node to canonical JSON TEXT for storage,
// together with its content hash.
func marshalResult(result ir.IRValue) (string, string, error) {
	data, err := ir.MarshalCanonical(result)
	if err != nil {
		return "", "", fmt.Errorf("marshal result: %w", err)
	}
	hash, err := ir.ResultHash(result)
	if err != nil {
		return "", "", fmt.Errorf("hash result: %w", err)
	}
	return string(data), hash, nil
}

// UnmarshalResult parses a stored result back into a node.
// Integers keep their subkind (json.Number under the hood).
func UnmarshalResult(data string) (ir.IRValue, error) {
	if data == "" {
		return ir.IRNull{}, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return v, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
