package pades

import (
	"encoding/json"
	"strings"
	"testing"
)

func reportWith(levels map[string]Level) *DocumentReport {
	d := newDocumentReport()
	for _, name := range []string{"a", "b", "c"} {
		if level, ok := levels[name]; ok {
			d.put(newSignatureReport(name, level, newFindings()))
		}
	}
	return d
}

func TestDocumentLevel(t *testing.T) {
	tests := []struct {
		name   string
		levels map[string]Level
		want   Level
	}{
		{"no signatures", nil, LevelNone},
		{"single", map[string]Level{"a": LevelBLT}, LevelBLT},
		{"weakest link", map[string]Level{"a": LevelBLTA, "b": LevelBT, "c": LevelBLT}, LevelBT},
		{"none wins over ladder", map[string]Level{"a": LevelBLTA, "b": LevelNone}, LevelNone},
		{"indeterminate wins over none", map[string]Level{"a": LevelNone, "b": LevelIndeterminate, "c": LevelBB}, LevelIndeterminate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reportWith(tt.levels).DocumentLevel(); got != tt.want {
				t.Errorf("DocumentLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignatureReportIsReadOnly(t *testing.T) {
	f := newFindings()
	f.addNonConformity(LevelBLT, "X")
	f.addNonConformity(LevelBLT, "X")
	f.addWarning(LevelBB, "W")
	r := newSignatureReport("sig", LevelBT, f)

	f.addNonConformity(LevelBLT, "Y")
	if got := r.NonConformitiesAt(LevelBLT); len(got) != 1 || got[0] != "X" {
		t.Errorf("report should not share findings storage: %v", got)
	}

	view := r.NonConformities()
	view[LevelBLT][0] = "mutated"
	view[LevelBB] = []string{"added"}
	if got := r.NonConformitiesAt(LevelBLT); got[0] != "X" {
		t.Errorf("NonConformities() should return a copy: %v", got)
	}
	if len(r.NonConformitiesAt(LevelBB)) != 0 {
		t.Error("NonConformities() should return a copy")
	}
	if !r.HasWarning(LevelBB, "W") || r.HasWarning(LevelBLT, "W") {
		t.Errorf("warnings = %v", r.Warnings())
	}
}

func TestDocumentReportJSON(t *testing.T) {
	f := newFindings()
	f.addNonConformity(LevelBLT, MsgDSSDictionaryIsMissing)
	d := newDocumentReport()
	d.put(newSignatureReport("Signature1", LevelBT, f))

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded struct {
		ID            string `json:"id"`
		DocumentLevel string `json:"document_level"`
		Signatures    []struct {
			Name            string              `json:"name"`
			Level           string              `json:"level"`
			NonConformities map[string][]string `json:"non_conformities"`
		} `json:"signatures"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.ID != d.ID().String() {
		t.Errorf("id = %s, want %s", decoded.ID, d.ID())
	}
	if decoded.DocumentLevel != "B_T" {
		t.Errorf("document_level = %s", decoded.DocumentLevel)
	}
	if len(decoded.Signatures) != 1 || decoded.Signatures[0].Level != "B_T" {
		t.Fatalf("signatures = %+v", decoded.Signatures)
	}
	if msgs := decoded.Signatures[0].NonConformities["B_LT"]; len(msgs) != 1 || msgs[0] != MsgDSSDictionaryIsMissing {
		t.Errorf("non_conformities = %v", decoded.Signatures[0].NonConformities)
	}
}

func TestDocumentReportString(t *testing.T) {
	d := reportWith(map[string]Level{"a": LevelBLTA, "b": LevelBB})
	s := d.String()
	if !strings.Contains(s, "a: B_LTA") || !strings.Contains(s, "b: B_B") || !strings.Contains(s, d.ID().String()) {
		t.Errorf("String() = %q", s)
	}
}
