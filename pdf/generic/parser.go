package generic

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// Parse errors
var (
	ErrUnexpectedEOF     = errors.New("unexpected end of data")
	ErrInvalidObject     = errors.New("invalid PDF object")
	ErrInvalidDictionary = errors.New("invalid PDF dictionary")
	ErrInvalidArray      = errors.New("invalid PDF array")
	ErrInvalidString     = errors.New("invalid PDF string")
	ErrInvalidName       = errors.New("invalid PDF name")
	ErrInvalidNumber     = errors.New("invalid PDF number")
	ErrIndirectReference = errors.New("indirect references are not resolved")
	ErrTrailingData      = errors.New("trailing data after object")
)

// ParseObject parses a single direct PDF object written in PDF syntax, such
// as a signature dictionary dumped by a PDF reader. Indirect references must
// already be resolved by the caller and are rejected.
func ParseObject(data []byte) (PdfObject, error) {
	p := &parser{data: data}
	obj, err := p.object()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.pos < len(p.data) {
		return nil, fmt.Errorf("%w at offset %d", ErrTrailingData, p.pos)
	}
	return obj, nil
}

// ParseDictionary parses data that must hold a single dictionary.
func ParseDictionary(data []byte) (*DictionaryObject, error) {
	obj, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	dict, ok := obj.(*DictionaryObject)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidDictionary, obj)
	}
	return dict, nil
}

type parser struct {
	data []byte
	pos  int
}

func (p *parser) eof() bool { return p.pos >= len(p.data) }

func (p *parser) peek() (byte, error) {
	if p.eof() {
		return 0, ErrUnexpectedEOF
	}
	return p.data[p.pos], nil
}

func (p *parser) next() (byte, error) {
	b, err := p.peek()
	if err == nil {
		p.pos++
	}
	return b, err
}

// skipWhitespace skips whitespace and comments.
func (p *parser) skipWhitespace() {
	for !p.eof() {
		b := p.data[p.pos]
		switch {
		case isWhitespace(b):
			p.pos++
		case b == '%':
			for !p.eof() && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		default:
			return
		}
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\x00' || b == '\x0c'
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' ||
		b == '[' || b == ']' || b == '{' || b == '}' ||
		b == '/' || b == '%'
}

// token reads a run of regular characters.
func (p *parser) token() string {
	start := p.pos
	for !p.eof() && !isWhitespace(p.data[p.pos]) && !isDelimiter(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

func (p *parser) object() (PdfObject, error) {
	p.skipWhitespace()
	b, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case b == '(':
		return p.literalString()
	case b == '<':
		if p.pos+1 < len(p.data) && p.data[p.pos+1] == '<' {
			p.pos += 2
			return p.dictionary()
		}
		return p.hexString()
	case b == '[':
		return p.array()
	case b == '/':
		return p.name()
	case b == '-' || b == '+' || b == '.' || (b >= '0' && b <= '9'):
		return p.numberOrReference()
	}

	start := p.pos
	switch tok := p.token(); tok {
	case "true":
		return BooleanObject(true), nil
	case "false":
		return BooleanObject(false), nil
	case "null":
		return NullObject{}, nil
	case "":
		return nil, fmt.Errorf("%w: unexpected character '%c' at offset %d", ErrInvalidObject, b, start)
	default:
		return nil, fmt.Errorf("%w: unexpected keyword %q at offset %d", ErrInvalidObject, tok, start)
	}
}

func (p *parser) literalString() (*StringObject, error) {
	p.pos++ // (
	var buf bytes.Buffer
	depth := 1

	for {
		b, err := p.next()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated string", ErrInvalidString)
		}

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return NewLiteralString(buf.String()), nil
			}
			buf.WriteByte(b)
		case '\\':
			if err := p.escape(&buf); err != nil {
				return nil, err
			}
		default:
			buf.WriteByte(b)
		}
	}
}

func (p *parser) escape(buf *bytes.Buffer) error {
	b, err := p.next()
	if err != nil {
		return fmt.Errorf("%w: unterminated escape", ErrInvalidString)
	}

	switch b {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		// Line continuation, optionally CRLF.
		if c, err := p.peek(); err == nil && c == '\n' {
			p.pos++
		}
	case '\n':
	default:
		if b < '0' || b > '7' {
			buf.WriteByte(b)
			return nil
		}
		val := int(b - '0')
		for i := 0; i < 2; i++ {
			c, err := p.peek()
			if err != nil || c < '0' || c > '7' {
				break
			}
			p.pos++
			val = val*8 + int(c-'0')
		}
		buf.WriteByte(byte(val))
	}
	return nil
}

func (p *parser) hexString() (*StringObject, error) {
	p.pos++ // <
	var digits []byte
	for {
		b, err := p.next()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated hex string", ErrInvalidString)
		}
		if b == '>' {
			break
		}
		if !isWhitespace(b) {
			digits = append(digits, b)
		}
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}

	data := make([]byte, len(digits)/2)
	if _, err := hex.Decode(data, digits); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidString, err)
	}
	return NewHexString(data), nil
}

// dictionary parses the body of a dictionary after "<<".
func (p *parser) dictionary() (*DictionaryObject, error) {
	dict := NewDictionary()
	for {
		p.skipWhitespace()
		b, err := p.peek()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated dictionary", ErrInvalidDictionary)
		}
		if b == '>' {
			if p.pos+1 >= len(p.data) || p.data[p.pos+1] != '>' {
				return nil, fmt.Errorf("%w: expected '>>'", ErrInvalidDictionary)
			}
			p.pos += 2
			return dict, nil
		}

		key, err := p.name()
		if err != nil {
			return nil, fmt.Errorf("%w: key: %w", ErrInvalidDictionary, err)
		}
		value, err := p.object()
		if err != nil {
			return nil, fmt.Errorf("%w: /%s: %w", ErrInvalidDictionary, key, err)
		}
		dict.Set(string(key), value)
	}
}

func (p *parser) array() (ArrayObject, error) {
	p.pos++ // [
	arr := ArrayObject{}
	for {
		p.skipWhitespace()
		b, err := p.peek()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated array", ErrInvalidArray)
		}
		if b == ']' {
			p.pos++
			return arr, nil
		}

		obj, err := p.object()
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrInvalidArray, len(arr), err)
		}
		arr = append(arr, obj)
	}
}

func (p *parser) name() (NameObject, error) {
	if b, err := p.peek(); err != nil || b != '/' {
		return "", ErrInvalidName
	}
	p.pos++

	var buf bytes.Buffer
	for !p.eof() {
		b := p.data[p.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		p.pos++
		if b != '#' {
			buf.WriteByte(b)
			continue
		}
		if p.pos+2 > len(p.data) {
			return "", fmt.Errorf("%w: truncated hex escape", ErrInvalidName)
		}
		val, err := strconv.ParseUint(string(p.data[p.pos:p.pos+2]), 16, 8)
		if err != nil {
			return "", fmt.Errorf("%w: invalid hex escape", ErrInvalidName)
		}
		p.pos += 2
		buf.WriteByte(byte(val))
	}
	return NameObject(buf.String()), nil
}

// numberOrReference parses a number and rejects "n g R" references.
func (p *parser) numberOrReference() (PdfObject, error) {
	num, err := p.number()
	if err != nil {
		return nil, err
	}
	if _, ok := num.(IntegerObject); !ok {
		return num, nil
	}

	save := p.pos
	p.skipWhitespace()
	if b, err := p.peek(); err == nil && b >= '0' && b <= '9' {
		if gen, err := p.number(); err == nil {
			if _, ok := gen.(IntegerObject); ok {
				p.skipWhitespace()
				if p.token() == "R" {
					return nil, fmt.Errorf("%w at offset %d", ErrIndirectReference, save)
				}
			}
		}
	}
	p.pos = save
	return num, nil
}

func (p *parser) number() (PdfObject, error) {
	start := p.pos
	hasDecimal := false
scan:
	for !p.eof() {
		switch b := p.data[p.pos]; {
		case b >= '0' && b <= '9':
		case b == '.' && !hasDecimal:
			hasDecimal = true
		case (b == '-' || b == '+') && p.pos == start:
		default:
			break scan
		}
		p.pos++
	}

	str := string(p.data[start:p.pos])
	if str == "" || str == "-" || str == "+" || str == "." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, str)
	}

	if hasDecimal {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
		}
		return RealObject(val), nil
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	return IntegerObject(val), nil
}
