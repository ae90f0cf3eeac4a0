package document

import (
	"encoding/base64"

	"github.com/roach88/reqlbridge/internal/ir"
)

func encodeBinary(b Binary) ir.IRValue {
	return ir.IRObject{
		TypeKey: ir.IRString(TypeBinary),
		"data":  ir.IRString(base64.StdEncoding.EncodeToString(b)),
	}
}

func decodeBinary(obj ir.IRObject) (Value, error) {
	data, ok := ir.AsString(obj["data"])
	if !ok {
		return nil, &ConversionError{Value: obj, Expected: "BINARY with base64 data", Reason: "data missing or not a string"}
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &ConversionError{Value: obj, Expected: "BINARY with base64 data", Reason: err.Error()}
	}
	return Binary(raw), nil
}
