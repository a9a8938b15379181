package eventlog

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/georgepadayatti/gopades/pdf/generic"
)

// Keys that turn a YAML map into a stream instead of a dictionary.
const (
	streamFileKey   = "stream-file"
	streamBase64Key = "stream-base64"
)

// dictionaryFrom builds a dictionary from either a YAML map or PDF syntax.
func (p *parser) dictionaryFrom(m map[string]any, pdf string) (*generic.DictionaryObject, error) {
	if pdf == "" {
		return p.toDictionary(m)
	}
	if m != nil {
		return nil, fmt.Errorf("%w: dictionary and pdf are exclusive", ErrInvalidLog)
	}
	dict, err := generic.ParseDictionary([]byte(pdf))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLog, err)
	}
	return dict, nil
}

// toDictionary converts a YAML map into a PDF dictionary. Keys are PDF names
// without the leading slash. Map keys are sorted so the result is stable.
func (p *parser) toDictionary(m map[string]any) (*generic.DictionaryObject, error) {
	dict := generic.NewDictionary()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		obj, err := p.toObject(m[key])
		if err != nil {
			return nil, fmt.Errorf("/%s: %w", key, err)
		}
		dict.Set(strings.TrimPrefix(key, "/"), obj)
	}
	return dict, nil
}

// toObject converts a decoded YAML value into a PDF object. Strings starting
// with a slash become names, other strings become text strings.
func (p *parser) toObject(v any) (generic.PdfObject, error) {
	switch val := v.(type) {
	case nil:
		return generic.NullObject{}, nil
	case bool:
		return generic.BooleanObject(val), nil
	case int:
		return generic.IntegerObject(val), nil
	case int64:
		return generic.IntegerObject(val), nil
	case uint64:
		return generic.IntegerObject(int64(val)), nil
	case float64:
		return generic.RealObject(val), nil
	case time.Time:
		return generic.NewTextString(generic.FormatDate(val)), nil
	case string:
		if strings.HasPrefix(val, "/") {
			return generic.NameObject(val[1:]), nil
		}
		return generic.NewTextString(val), nil
	case []any:
		arr := make(generic.ArrayObject, 0, len(val))
		for i, item := range val {
			obj, err := p.toObject(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr = append(arr, obj)
		}
		return arr, nil
	case map[string]any:
		if path, ok := val[streamFileKey].(string); ok {
			data, err := os.ReadFile(p.resolve(path))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidLog, err)
			}
			return generic.NewStream(nil, data), nil
		}
		if encoded, ok := val[streamBase64Key].(string); ok {
			data, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, fmt.Errorf("%w: stream data: %v", ErrInvalidLog, err)
			}
			return generic.NewStream(nil, data), nil
		}
		return p.toDictionary(val)
	default:
		return nil, fmt.Errorf("%w: unsupported value %T", ErrInvalidLog, v)
	}
}

func (p *parser) resolve(path string) string {
	if filepath.IsAbs(path) || p.baseDir == "" {
		return path
	}
	return filepath.Join(p.baseDir, path)
}
