// Package generic provides the PDF object types used to describe signature,
// document timestamp and DSS dictionaries.
package generic

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// PdfObject is the base interface for all PDF objects.
type PdfObject interface {
	// Write serializes the object to PDF syntax.
	Write(w io.Writer) error
	// Clone creates a deep copy of the object.
	Clone() PdfObject
}

// Serialize renders an object to its PDF syntax. Write errors are reported
// inline since the target is an in-memory buffer.
func Serialize(obj PdfObject) string {
	if obj == nil {
		return "null"
	}
	var buf bytes.Buffer
	if err := obj.Write(&buf); err != nil {
		return fmt.Sprintf("<error: %v>", err)
	}
	return buf.String()
}

// NullObject represents the PDF null object.
type NullObject struct{}

// Write implements PdfObject.
func (n NullObject) Write(w io.Writer) error {
	_, err := w.Write([]byte("null"))
	return err
}

// Clone implements PdfObject.
func (n NullObject) Clone() PdfObject { return n }

// BooleanObject represents a PDF boolean.
type BooleanObject bool

// Write implements PdfObject.
func (b BooleanObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatBool(bool(b)))
	return err
}

// Clone implements PdfObject.
func (b BooleanObject) Clone() PdfObject { return b }

// IntegerObject represents a PDF integer.
type IntegerObject int64

// Write implements PdfObject.
func (i IntegerObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatInt(int64(i), 10))
	return err
}

// Clone implements PdfObject.
func (i IntegerObject) Clone() PdfObject { return i }

// RealObject represents a PDF real number.
type RealObject float64

// Write implements PdfObject.
func (r RealObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatFloat(float64(r), 'f', -1, 64))
	return err
}

// Clone implements PdfObject.
func (r RealObject) Clone() PdfObject { return r }

// NameObject represents a PDF name (e.g. /SubFilter) without the leading slash.
type NameObject string

var nameEscapeRegex = regexp.MustCompile(`[^!-~]|[#%/\[\]()<>{}]`)

// Write implements PdfObject.
func (n NameObject) Write(w io.Writer) error {
	escaped := nameEscapeRegex.ReplaceAllStringFunc(string(n), func(s string) string {
		return fmt.Sprintf("#%02X", s[0])
	})
	_, err := fmt.Fprintf(w, "/%s", escaped)
	return err
}

// Clone implements PdfObject.
func (n NameObject) Clone() PdfObject { return n }

// String returns the name without the leading slash.
func (n NameObject) String() string { return string(n) }

// StringObject represents a PDF string, literal or hexadecimal.
type StringObject struct {
	Value []byte
	IsHex bool
}

// NewLiteralString creates a new literal string.
func NewLiteralString(s string) *StringObject {
	return &StringObject{Value: []byte(s)}
}

// NewHexString creates a new hex string, the usual form of /Contents.
func NewHexString(data []byte) *StringObject {
	return &StringObject{Value: data, IsHex: true}
}

// NewTextString creates a PDF text string, using UTF-16BE with a BOM when the
// text does not fit in a single byte per rune.
func NewTextString(s string) *StringObject {
	for _, r := range s {
		if r > 0xFF {
			units := utf16.Encode([]rune(s))
			buf := make([]byte, 0, 2+2*len(units))
			buf = append(buf, 0xFE, 0xFF)
			for _, u := range units {
				buf = append(buf, byte(u>>8), byte(u))
			}
			return &StringObject{Value: buf}
		}
	}
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		buf = append(buf, byte(r))
	}
	return &StringObject{Value: buf}
}

// Write implements PdfObject.
func (s *StringObject) Write(w io.Writer) error {
	if s.IsHex {
		_, err := fmt.Fprintf(w, "<%s>", hex.EncodeToString(s.Value))
		return err
	}

	var buf bytes.Buffer
	buf.WriteByte('(')
	for _, b := range s.Value {
		switch b {
		case '\\':
			buf.WriteString(`\\`)
		case '(':
			buf.WriteString(`\(`)
		case ')':
			buf.WriteString(`\)`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if b < 32 || b > 126 {
				fmt.Fprintf(&buf, "\\%03o", b)
			} else {
				buf.WriteByte(b)
			}
		}
	}
	buf.WriteByte(')')
	_, err := w.Write(buf.Bytes())
	return err
}

// Clone implements PdfObject.
func (s *StringObject) Clone() PdfObject {
	val := make([]byte, len(s.Value))
	copy(val, s.Value)
	return &StringObject{Value: val, IsHex: s.IsHex}
}

// Text decodes the string as a PDF text string and returns it in NFC form.
// UTF-16BE is recognised by its byte order mark; anything else is taken as
// single-byte text.
func (s *StringObject) Text() string {
	v := s.Value
	if len(v) >= 2 && v[0] == 0xFE && v[1] == 0xFF {
		units := make([]uint16, 0, (len(v)-2)/2)
		for i := 2; i+1 < len(v); i += 2 {
			units = append(units, uint16(v[i])<<8|uint16(v[i+1]))
		}
		return norm.NFC.String(string(utf16.Decode(units)))
	}
	var sb strings.Builder
	for _, b := range v {
		sb.WriteRune(rune(b))
	}
	return norm.NFC.String(sb.String())
}

// ArrayObject represents a PDF array.
type ArrayObject []PdfObject

// NewArray creates a new array.
func NewArray(items ...PdfObject) ArrayObject {
	return ArrayObject(items)
}

// Write implements PdfObject.
func (a ArrayObject) Write(w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return err
	}
	for i, item := range a {
		if i > 0 {
			if _, err := w.Write([]byte(" ")); err != nil {
				return err
			}
		}
		if item == nil {
			item = NullObject{}
		}
		if err := item.Write(w); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte("]"))
	return err
}

// Clone implements PdfObject.
func (a ArrayObject) Clone() PdfObject {
	result := make(ArrayObject, len(a))
	for i, item := range a {
		if item != nil {
			result[i] = item.Clone()
		}
	}
	return result
}

// Get returns the item at the given index, or nil when out of range.
func (a ArrayObject) Get(index int) PdfObject {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// Ints returns the array as integers. ok is false if any item is not an integer.
func (a ArrayObject) Ints() (values []int64, ok bool) {
	values = make([]int64, 0, len(a))
	for _, item := range a {
		i, isInt := item.(IntegerObject)
		if !isInt {
			return nil, false
		}
		values = append(values, int64(i))
	}
	return values, true
}

// DictionaryObject represents a PDF dictionary. Keys are stored without the
// leading slash and keep insertion order.
type DictionaryObject struct {
	entries map[string]PdfObject
	order   []string
}

// NewDictionary creates a new dictionary.
func NewDictionary() *DictionaryObject {
	return &DictionaryObject{
		entries: make(map[string]PdfObject),
	}
}

// Write implements PdfObject.
func (d *DictionaryObject) Write(w io.Writer) error {
	if _, err := w.Write([]byte("<<")); err != nil {
		return err
	}
	for _, key := range d.order {
		if _, err := w.Write([]byte(" ")); err != nil {
			return err
		}
		if err := NameObject(key).Write(w); err != nil {
			return err
		}
		if _, err := w.Write([]byte(" ")); err != nil {
			return err
		}
		if err := d.entries[key].Write(w); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte(" >>"))
	return err
}

// Clone implements PdfObject.
func (d *DictionaryObject) Clone() PdfObject {
	result := NewDictionary()
	for _, key := range d.order {
		result.Set(key, d.entries[key].Clone())
	}
	return result
}

// Set sets a key-value pair. A nil value is stored as the null object.
func (d *DictionaryObject) Set(key string, value PdfObject) {
	if value == nil {
		value = NullObject{}
	}
	if _, exists := d.entries[key]; !exists {
		d.order = append(d.order, key)
	}
	d.entries[key] = value
}

// Get returns the value for a key, or nil.
func (d *DictionaryObject) Get(key string) PdfObject {
	if d == nil {
		return nil
	}
	return d.entries[key]
}

// GetName returns a name value, or "" if absent or not a name.
func (d *DictionaryObject) GetName(key string) string {
	if name, ok := d.Get(key).(NameObject); ok {
		return string(name)
	}
	return ""
}

// GetInt returns an integer value.
func (d *DictionaryObject) GetInt(key string) (int64, bool) {
	if i, ok := d.Get(key).(IntegerObject); ok {
		return int64(i), true
	}
	return 0, false
}

// GetString returns a string value, or nil.
func (d *DictionaryObject) GetString(key string) *StringObject {
	if s, ok := d.Get(key).(*StringObject); ok {
		return s
	}
	return nil
}

// GetText returns a string value decoded as a text string.
func (d *DictionaryObject) GetText(key string) (string, bool) {
	s := d.GetString(key)
	if s == nil {
		return "", false
	}
	return s.Text(), true
}

// GetArray returns an array value, or nil.
func (d *DictionaryObject) GetArray(key string) ArrayObject {
	if arr, ok := d.Get(key).(ArrayObject); ok {
		return arr
	}
	return nil
}

// GetDict returns a dictionary value, or nil.
func (d *DictionaryObject) GetDict(key string) *DictionaryObject {
	if dict, ok := d.Get(key).(*DictionaryObject); ok {
		return dict
	}
	return nil
}

// Delete removes a key.
func (d *DictionaryObject) Delete(key string) {
	if _, exists := d.entries[key]; !exists {
		return
	}
	delete(d.entries, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Has returns true if the key exists. A key mapped to null counts as absent.
func (d *DictionaryObject) Has(key string) bool {
	if d == nil {
		return false
	}
	v, exists := d.entries[key]
	if !exists {
		return false
	}
	_, isNull := v.(NullObject)
	return !isNull
}

// Keys returns all keys in insertion order.
func (d *DictionaryObject) Keys() []string {
	keys := make([]string, len(d.order))
	copy(keys, d.order)
	return keys
}

// Len returns the number of entries.
func (d *DictionaryObject) Len() int {
	return len(d.entries)
}

// StreamObject represents a PDF stream. DSS entries hold DER data in streams.
type StreamObject struct {
	Dictionary *DictionaryObject
	Data       []byte
}

// NewStream creates a new stream.
func NewStream(dict *DictionaryObject, data []byte) *StreamObject {
	if dict == nil {
		dict = NewDictionary()
	}
	return &StreamObject{Dictionary: dict, Data: data}
}

// Write implements PdfObject.
func (s *StreamObject) Write(w io.Writer) error {
	s.Dictionary.Set("Length", IntegerObject(len(s.Data)))
	if err := s.Dictionary.Write(w); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\nstream\n")); err != nil {
		return err
	}
	if _, err := w.Write(s.Data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\nendstream"))
	return err
}

// Clone implements PdfObject.
func (s *StreamObject) Clone() PdfObject {
	data := make([]byte, len(s.Data))
	copy(data, s.Data)
	return &StreamObject{
		Dictionary: s.Dictionary.Clone().(*DictionaryObject),
		Data:       data,
	}
}
