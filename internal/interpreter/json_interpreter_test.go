// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package interpreter

import (
	"errors"
	"testing"
)

func TestJSONInterpreterDefaultsToAdd(t *testing.T) {
	j := NewJSONInterpreter()
	ind, err := j.Interpret([]byte(`{"uid": 42, "title": "hello"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ind.UID != 42 {
		t.Errorf("expected UID 42, got %d", ind.UID)
	}
	if ind.Op != OpAdd {
		t.Errorf("expected OpAdd, got %v", ind.Op)
	}
}

func TestJSONInterpreterHonorsOp(t *testing.T) {
	j := NewJSONInterpreter()
	ind, err := j.Interpret([]byte(`{"uid": 7, "_op": "delete"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ind.Op != OpDelete {
		t.Errorf("expected OpDelete, got %v", ind.Op)
	}
}

func TestJSONInterpreterMissingUID(t *testing.T) {
	j := NewJSONInterpreter()
	_, err := j.Interpret([]byte(`{"title": "no uid here"}`))
	if !errors.Is(err, ErrMissingUID) {
		t.Fatalf("expected ErrMissingUID, got %v", err)
	}
}

func TestJSONInterpreterRejectsUnknownOp(t *testing.T) {
	j := NewJSONInterpreter()
	_, err := j.Interpret([]byte(`{"uid": 1, "_op": "bogus"}`))
	if err == nil {
		t.Fatal("expected error for unrecognized _op")
	}
}

func TestJSONInterpreterAcceptsStringUID(t *testing.T) {
	j := NewJSONInterpreter()
	ind, err := j.Interpret(`{"uid": "99"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ind.UID != 99 {
		t.Errorf("expected UID 99, got %d", ind.UID)
	}
}
