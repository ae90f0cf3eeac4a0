package cli

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/roach88/reqlbridge/internal/document"
	"github.com/roach88/reqlbridge/internal/ir"
	"github.com/roach88/reqlbridge/internal/queryir"
)

// LoadError represents an error that occurred while loading a query file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidQuery(format string, args ...any) *LoadError {
	return &LoadError{Code: ErrCodeInvalidQuery, Message: fmt.Sprintf(format, args...)}
}

// LoadQuery reads a query file and converts it into a queryir.Query.
//
// The format is chosen by extension: .yaml/.yml, .cue or .json. All three
// describe the same shape:
//
//	entity: posts
//	action: fetch
//	filters:
//	  - {field: views, op: ">", value: 10}
//	  - {field: tag, in: [go, db]}
//	  - or:
//	      - {field: title, op: hasPrefix, value: Hello}
//	sorts: [{field: title, direction: desc}]
//	limit: {offset: 0, count: 10}
//
// Extended values in data or filter literals use the $reql_type$ objects
// the codec understands.
func LoadQuery(fs afero.Fs, path string) (queryir.Query, error) {
	data, err := afero.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return queryir.Query{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query file not found: %s", path)}
	}
	if err != nil {
		return queryir.Query{}, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	node, err := parseQueryFile(path, data)
	if err != nil {
		return queryir.Query{}, err
	}
	return QueryFromNode(node)
}

func parseQueryFile(path string, data []byte) (ir.IRValue, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing YAML: %v", err)}
		}
		return document.HostValueToGeneric(raw), nil
	case ".cue":
		return parseCUE(path, data)
	case ".json":
		node, err := ir.UnmarshalIRValue(data)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing JSON: %v", err)}
		}
		return node, nil
	default:
		return nil, &LoadError{Code: ErrCodeFileType, Message: fmt.Sprintf("unsupported query file type %q (want .yaml, .yml, .cue or .json)", ext)}
	}
}

// parseCUE evaluates a single CUE file. The value must be concrete; it is
// exported through JSON so numbers keep their integer or float kind.
func parseCUE(path string, data []byte) (ir.IRValue, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueLoadError("building CUE value", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError("CUE value is not concrete", err)
	}

	js, err := value.MarshalJSON()
	if err != nil {
		return nil, cueLoadError("exporting CUE value", err)
	}
	node, err := ir.UnmarshalIRValue(js)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("decoding CUE export: %v", err)}
	}
	return node, nil
}

func cueLoadError(context string, err error) *LoadError {
	loadErr := &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: %v", context, err)}
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}

// QueryFromNode converts a parsed query document into a queryir.Query.
func QueryFromNode(node ir.IRValue) (queryir.Query, error) {
	obj, ok := node.(ir.IRObject)
	if !ok {
		return queryir.Query{}, invalidQuery("query must be an object, got %T", node)
	}

	var q queryir.Query
	var err error

	if q.Entity, err = stringField(obj, "entity", true); err != nil {
		return q, err
	}
	action, err := stringField(obj, "action", true)
	if err != nil {
		return q, err
	}
	if q.Action, err = queryir.ParseAction(action); err != nil {
		return q, invalidQuery("%v", err)
	}

	if raw, ok := obj["filters"]; ok && !ir.IsNull(raw) {
		items, ok := raw.(ir.IRArray)
		if !ok {
			return q, invalidQuery("filters must be a list")
		}
		if q.Filters, err = filtersFromNodes(items, "filters"); err != nil {
			return q, err
		}
	}

	if raw, ok := obj["sorts"]; ok && !ir.IsNull(raw) {
		if q.Sorts, err = sortsFromNode(raw); err != nil {
			return q, err
		}
	}

	if raw, ok := obj["limit"]; ok && !ir.IsNull(raw) {
		if q.Limit, err = limitFromNode(raw); err != nil {
			return q, err
		}
	}

	if raw, ok := obj["data"]; ok && !ir.IsNull(raw) {
		data, ok := raw.(ir.IRObject)
		if !ok {
			return q, invalidQuery("data must be an object")
		}
		q.Data = data
	}

	if raw, ok := obj["unions"]; ok && !ir.IsNull(raw) {
		if q.Unions, err = unionsFromNode(raw); err != nil {
			return q, err
		}
	}

	return q, nil
}

func filtersFromNodes(items ir.IRArray, path string) ([]queryir.Filter, error) {
	filters := make([]queryir.Filter, 0, len(items))
	for i, item := range items {
		f, err := filterFromNode(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// filterFromNode recognises three node shapes: {and|or: [...]},
// {field, in|not_in: [...]} and {field, op, value}.
func filterFromNode(node ir.IRValue, path string) (queryir.Filter, error) {
	obj, ok := node.(ir.IRObject)
	if !ok {
		return nil, invalidQuery("%s: filter must be an object", path)
	}

	for _, rel := range []queryir.Relation{queryir.RelationAnd, queryir.RelationOr} {
		raw, ok := obj[string(rel)]
		if !ok {
			continue
		}
		children, ok := raw.(ir.IRArray)
		if !ok {
			return nil, invalidQuery("%s.%s must be a list", path, rel)
		}
		sub, err := filtersFromNodes(children, path+"."+string(rel))
		if err != nil {
			return nil, err
		}
		return queryir.Group{Relation: rel, Filters: sub}, nil
	}

	field, err := stringField(obj, "field", true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for key, scope := range map[string]queryir.Scope{"in": queryir.ScopeIn, "not_in": queryir.ScopeNotIn} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		values, ok := raw.(ir.IRArray)
		if !ok {
			return nil, invalidQuery("%s.%s must be a list", path, key)
		}
		return queryir.Subset{Field: field, Scope: scope, Values: values}, nil
	}

	opName, err := stringField(obj, "op", true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	op, err := queryir.ParseComparison(opName)
	if err != nil {
		return nil, invalidQuery("%s: %v", path, err)
	}
	value, ok := obj["value"]
	if !ok {
		value = ir.IRNull{}
	}
	return queryir.Compare{Field: field, Op: op, Value: value}, nil
}

func sortsFromNode(node ir.IRValue) ([]queryir.Sort, error) {
	items, ok := node.(ir.IRArray)
	if !ok {
		return nil, invalidQuery("sorts must be a list")
	}
	sorts := make([]queryir.Sort, 0, len(items))
	for i, item := range items {
		obj, ok := item.(ir.IRObject)
		if !ok {
			return nil, invalidQuery("sorts[%d] must be an object", i)
		}
		field, err := stringField(obj, "field", true)
		if err != nil {
			return nil, fmt.Errorf("sorts[%d]: %w", i, err)
		}
		dir, err := stringField(obj, "direction", false)
		if err != nil {
			return nil, fmt.Errorf("sorts[%d]: %w", i, err)
		}
		s := queryir.Sort{Field: field}
		switch strings.ToLower(dir) {
		case "", "asc", "ascending":
			s.Direction = queryir.Ascending
		case "desc", "descending":
			s.Direction = queryir.Descending
		default:
			return nil, invalidQuery("sorts[%d]: unknown direction %q", i, dir)
		}
		sorts = append(sorts, s)
	}
	return sorts, nil
}

func limitFromNode(node ir.IRValue) (*queryir.Limit, error) {
	obj, ok := node.(ir.IRObject)
	if !ok {
		return nil, invalidQuery("limit must be an object")
	}
	offset, err := intField(obj, "offset")
	if err != nil {
		return nil, err
	}
	count, err := intField(obj, "count")
	if err != nil {
		return nil, err
	}
	return &queryir.Limit{Offset: offset, Count: count}, nil
}

func unionsFromNode(node ir.IRValue) ([]queryir.Union, error) {
	items, ok := node.(ir.IRArray)
	if !ok {
		return nil, invalidQuery("unions must be a list")
	}
	unions := make([]queryir.Union, 0, len(items))
	for i, item := range items {
		obj, ok := item.(ir.IRObject)
		if !ok {
			return nil, invalidQuery("unions[%d] must be an object", i)
		}
		var u queryir.Union
		var err error
		if u.Entity, err = stringField(obj, "entity", true); err != nil {
			return nil, fmt.Errorf("unions[%d]: %w", i, err)
		}
		u.LocalKey, _ = stringField(obj, "local_key", false)
		u.ForeignKey, _ = stringField(obj, "foreign_key", false)
		unions = append(unions, u)
	}
	return unions, nil
}

func stringField(obj ir.IRObject, key string, required bool) (string, error) {
	raw, ok := obj[key]
	if !ok || ir.IsNull(raw) {
		if required {
			return "", invalidQuery("missing %q", key)
		}
		return "", nil
	}
	s, ok := ir.AsString(raw)
	if !ok {
		return "", invalidQuery("%q must be a string", key)
	}
	return s, nil
}

// intField reads a whole number. Absent means zero.
func intField(obj ir.IRObject, key string) (int, error) {
	raw, ok := obj[key]
	if !ok || ir.IsNull(raw) {
		return 0, nil
	}
	f, ok := ir.AsFloat(raw)
	if !ok || f != math.Trunc(f) {
		return 0, invalidQuery("limit.%s must be a whole number", key)
	}
	return int(f), nil
}
