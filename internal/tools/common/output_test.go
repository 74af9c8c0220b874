package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestWriteCIResult(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCIResult(&buf, false, "seed apply", []string{"created 0 of 5 demo users"}, errors.New("connect: refused")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got CIResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.OK || got.Title != "seed apply" || got.Error != "connect: refused" || len(got.Details) != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.CompletedAt.IsZero() {
		t.Fatal("expected completion timestamp")
	}
}
