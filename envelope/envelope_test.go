package envelope

import (
	"strings"
	"testing"
)

func TestNewIDShape(t *testing.T) {
	id := NewID()
	if len(id) != 32 {
		t.Fatalf("expected 32 hex chars, got %d (%q)", len(id), id)
	}
	if strings.ContainsAny(id, "-_") {
		t.Fatalf("expected no separators in id, got %q", id)
	}
	if id2 := NewID(); id == id2 {
		t.Fatalf("expected two calls to NewID to differ, both returned %q", id)
	}
}

func TestResponseExactlyOneInvariant(t *testing.T) {
	ok := &Response{ID: "x", Result: 7}
	if ok.Result == nil || ok.Error != nil {
		t.Fatalf("success response must carry a result and no error: %+v", ok)
	}

	failed := &Response{ID: "x", Error: &RPCError{Type: "zrpc.registry.MissingMethod", Message: "boom"}}
	if failed.Result != nil || failed.Error == nil {
		t.Fatalf("failure response must carry an error and no result: %+v", failed)
	}
}
