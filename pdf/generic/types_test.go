package generic

import (
	"bytes"
	"testing"
)

func TestNullObject(t *testing.T) {
	null := NullObject{}
	var buf bytes.Buffer
	if err := null.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if buf.String() != "null" {
		t.Errorf("Expected 'null', got '%s'", buf.String())
	}

	if _, ok := null.Clone().(NullObject); !ok {
		t.Error("Clone should return NullObject")
	}
}

func TestScalarSerialization(t *testing.T) {
	tests := []struct {
		obj      PdfObject
		expected string
	}{
		{BooleanObject(true), "true"},
		{BooleanObject(false), "false"},
		{IntegerObject(-42), "-42"},
		{RealObject(1.5), "1.5"},
		{NameObject("SubFilter"), "/SubFilter"},
		{NameObject("ETSI.CAdES.detached"), "/ETSI.CAdES.detached"},
		{NameObject("A B"), "/A#20B"},
		{NewLiteralString("a(b)"), `(a\(b\))`},
		{NewHexString([]byte{0x30, 0x82}), "<3082>"},
	}

	for _, tt := range tests {
		if got := Serialize(tt.obj); got != tt.expected {
			t.Errorf("Serialize(%#v) = %q, want %q", tt.obj, got, tt.expected)
		}
	}
}

func TestTextString(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"ascii", "I approve"},
		{"latin1", "Genehmigt für Müller"},
		{"cjk", "承認します"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTextString(tt.in)
			if got := s.Text(); got != tt.in {
				t.Errorf("Text() = %q, want %q", got, tt.in)
			}
		})
	}
}

func TestTextStringNormalizesToNFC(t *testing.T) {
	// "e" followed by a combining acute accent, encoded as UTF-16BE.
	s := &StringObject{Value: []byte{0xFE, 0xFF, 0x00, 'e', 0x03, 0x01}}
	if got := s.Text(); got != "é" {
		t.Errorf("Text() = %q, want precomposed e-acute", got)
	}
}

func TestDictionaryAccessors(t *testing.T) {
	dict := NewDictionary()
	dict.Set("Type", NameObject("Sig"))
	dict.Set("SubFilter", NameObject("ETSI.CAdES.detached"))
	dict.Set("ByteRange", NewArray(IntegerObject(0), IntegerObject(10), IntegerObject(20), IntegerObject(30)))
	dict.Set("Reason", NewTextString("Approval"))
	dict.Set("Cert", nil)

	if got := dict.GetName("SubFilter"); got != "ETSI.CAdES.detached" {
		t.Errorf("GetName = %q", got)
	}
	if got := dict.GetName("Reason"); got != "" {
		t.Errorf("GetName on a string should be empty, got %q", got)
	}
	if reason, ok := dict.GetText("Reason"); !ok || reason != "Approval" {
		t.Errorf("GetText = %q, %v", reason, ok)
	}
	if br, ok := dict.GetArray("ByteRange").Ints(); !ok || len(br) != 4 || br[3] != 30 {
		t.Errorf("ByteRange ints = %v, %v", br, ok)
	}
	if dict.Has("Cert") {
		t.Error("null-valued key should not count as present")
	}
	if dict.Has("M") {
		t.Error("missing key should not be present")
	}

	keys := dict.Keys()
	if len(keys) != 5 || keys[0] != "Type" || keys[4] != "Cert" {
		t.Errorf("Keys() = %v", keys)
	}

	dict.Delete("Cert")
	if dict.Len() != 4 {
		t.Errorf("Len after delete = %d, want 4", dict.Len())
	}
}

func TestDictionaryCloneIsDeep(t *testing.T) {
	inner := NewDictionary()
	inner.Set("Name", NewLiteralString("x"))
	dict := NewDictionary()
	dict.Set("Inner", inner)

	clone := dict.Clone().(*DictionaryObject)
	clone.GetDict("Inner").Set("Name", NewLiteralString("y"))

	if got, _ := dict.GetDict("Inner").GetText("Name"); got != "x" {
		t.Errorf("original mutated through clone: %q", got)
	}
}

func TestNilDictionaryIsEmpty(t *testing.T) {
	var dict *DictionaryObject
	if dict.Has("M") {
		t.Error("nil dictionary reports keys")
	}
	if dict.Get("M") != nil {
		t.Error("nil dictionary returns values")
	}
	if dict.GetName("SubFilter") != "" {
		t.Error("nil dictionary returns names")
	}
}

func TestStreamSerialization(t *testing.T) {
	s := NewStream(nil, []byte("abc"))
	want := "<< /Length 3 >>\nstream\nabc\nendstream"
	if got := Serialize(s); got != want {
		t.Errorf("Serialize(stream) = %q, want %q", got, want)
	}
}
