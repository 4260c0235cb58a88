package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/usecase/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"UseCaseID", id.NewUseCaseID, "uc_"},
		{"RunID", id.NewRunID, "ucrun_"},
		{"SubscriberID", id.NewSubscriberID, "sub_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 1000 {
		s := id.NewUseCaseID().String()
		if _, dup := seen[s]; dup {
			t.Fatalf("duplicate id %q", s)
		}
		seen[s] = struct{}{}
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := id.NewRunID()
	parsed, err := id.ParseRunID(original.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
	}
}

func TestCrossTypeRejection(t *testing.T) {
	uc := id.NewUseCaseID()
	if _, err := id.ParseRunID(uc.String()); err == nil {
		t.Error("expected error parsing use case id as run id")
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "not-a-typeid", "uc_!!!"} {
		if _, err := id.Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type entity struct {
		ID id.ID `json:"id"`
	}

	original := entity{ID: id.NewUseCaseID()}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded entity
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID.String() != original.ID.String() {
		t.Errorf("mismatch: %q != %q", decoded.ID.String(), original.ID.String())
	}
}
