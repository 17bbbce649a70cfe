// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package interpreter

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// JSONInterpreter decodes a JSON-encoded document. It requires a "uid"
// field convertible to uint64 and honors an optional "_op" field
// ("add", "update", "delete"; defaults to "add" if absent). The whole
// document, "uid" and "_op" included, becomes the Indexable's Doc: []byte
// and string inputs are kept byte for byte, map inputs are JSON-encoded.
//
// Accepted inputs are []byte, string, or any value already shaped as
// map[string]any (e.g. pre-decoded by a caller).
type JSONInterpreter struct{}

// NewJSONInterpreter returns a ready-to-use JSONInterpreter.
func NewJSONInterpreter() *JSONInterpreter {
	return &JSONInterpreter{}
}

// Interpret implements Interpreter.
func (j *JSONInterpreter) Interpret(value any) (Indexable, error) {
	fields, raw, err := decodeFields(value)
	if err != nil {
		return Indexable{}, fmt.Errorf("interpreter: decode: %w", err)
	}

	uid, err := extractUID(fields)
	if err != nil {
		return Indexable{}, err
	}

	op := OpAdd
	if rawOp, ok := fields["_op"]; ok {
		op, err = parseOp(rawOp)
		if err != nil {
			return Indexable{}, fmt.Errorf("interpreter: %w", err)
		}
	}

	return Indexable{UID: uid, Doc: raw, Op: op}, nil
}

func decodeFields(value any) (map[string]any, []byte, error) {
	switch v := value.(type) {
	case []byte:
		var fields map[string]any
		if err := json.Unmarshal(v, &fields); err != nil {
			return nil, nil, err
		}
		return fields, v, nil
	case string:
		var fields map[string]any
		if err := json.Unmarshal([]byte(v), &fields); err != nil {
			return nil, nil, err
		}
		return fields, []byte(v), nil
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, nil, err
		}
		return v, raw, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, nil, err
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, nil, err
		}
		return fields, raw, nil
	}
}

func extractUID(fields map[string]any) (uint64, error) {
	raw, ok := fields["uid"]
	if !ok {
		return 0, ErrMissingUID
	}
	switch v := raw.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("interpreter: uid must be non-negative, got %v", v)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("interpreter: uid must be non-negative, got %v", v)
		}
		return uint64(v), nil
	case string:
		var parsed uint64
		if _, err := fmt.Sscanf(v, "%d", &parsed); err != nil {
			return 0, fmt.Errorf("interpreter: uid %q is not a valid integer", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("interpreter: uid has unsupported type %T", raw)
	}
}

func parseOp(raw any) (Op, error) {
	s, ok := raw.(string)
	if !ok {
		return OpAdd, fmt.Errorf("_op must be a string, got %T", raw)
	}
	switch s {
	case "add", "":
		return OpAdd, nil
	case "update":
		return OpUpdate, nil
	case "delete":
		return OpDelete, nil
	default:
		return OpAdd, fmt.Errorf("unrecognized _op %q", s)
	}
}
