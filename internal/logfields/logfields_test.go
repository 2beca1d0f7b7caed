package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b-1", BuildID("b-1")},
		{"Mode", KeyMode, "bundle", Mode("bundle")},
		{"Stage", KeyStage, "compile", Stage("compile")},
		{"Entry", KeyEntry, "index", Entry("index")},
		{"Package", KeyPackage, "@savvy/widgets", Package("@savvy/widgets")},
		{"File", KeyFile, "src/index.ts", File("src/index.ts")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestErrorAttr(t *testing.T) {
	a := Error(errors.New("boom"))
	if a.Key != KeyError || a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr %v", a)
	}
	if Error(nil).Value.String() != "" {
		t.Fatal("nil error should render empty")
	}
}

func TestDurationMS(t *testing.T) {
	a := DurationMS(12.5)
	if a.Key != KeyDurationMS {
		t.Fatalf("expected key %s, got %s", KeyDurationMS, a.Key)
	}
	if a.Value.Float64() != 12.5 {
		t.Fatalf("expected 12.5, got %v", a.Value.Float64())
	}
}
