package metadata

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testStamp = Stamp{
	RunID:       "5b0c",
	Topic:       "India  Politics",
	GeneratedAt: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
}

func TestSign_RoundTrip(t *testing.T) {
	signed := Sign("# Report\n\nBody\n", testStamp)

	if !strings.HasPrefix(signed, "# Report\n\nBody\n\n"+TagStart) {
		t.Fatalf("stamp should follow the body, got:\n%s", signed)
	}

	stamp, err := Verify(signed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if stamp.RunID != "5b0c" || stamp.Topic != "India Politics" {
		t.Errorf("unexpected stamp: %+v", stamp)
	}

	if !stamp.GeneratedAt.Equal(testStamp.GeneratedAt) {
		t.Errorf("GeneratedAt = %v, want %v", stamp.GeneratedAt, testStamp.GeneratedAt)
	}
}

func TestSign_ReplacesExistingStamp(t *testing.T) {
	once := Sign("body", testStamp)
	twice := Sign(once, Stamp{RunID: "second"})

	if strings.Count(twice, TagStart) != 1 {
		t.Fatalf("expected one stamp block, got:\n%s", twice)
	}

	stamp, err := Verify(twice)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if stamp.RunID != "second" {
		t.Errorf("RunID = %q, want second", stamp.RunID)
	}
}

func TestVerify_Errors(t *testing.T) {
	signed := Sign("original body", testStamp)

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"no stamp", "plain text", ErrNoStamp},
		{"edited body", strings.Replace(signed, "original", "edited", 1), ErrHashMismatch},
		{"missing hash", "x\n\n" + TagStart + "\nRUN_ID: r\n" + TagEnd, ErrNoHashFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Verify(tt.content)
			if !errors.Is(err, tt.want) {
				t.Errorf("Verify() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHash_IgnoresStamp(t *testing.T) {
	if Hash("body") != Hash(Sign("body", testStamp)) {
		t.Error("hash should cover the body only")
	}
}
