package encsearch

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Field names accepted by AddRecord.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldPrice       = "price"
)

// requiredFields lists the fields AddRecord validates, in report order.
var requiredFields = []string{FieldName, FieldDescription, FieldCategory, FieldPrice}

// Record is a plaintext product.
type Record struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

// Fields is the plaintext input of AddRecord, keyed by field name.
// String fields take string values; price takes any Go numeric type or json.Number.
type Fields map[string]any

// toRecord validates f and builds a Record without an id.
func (f Fields) toRecord() (Record, error) {
	verr := &ValidationError{}
	var r Record

	for _, name := range requiredFields {
		v, ok := f[name]
		if !ok || v == nil {
			verr.Missing = append(verr.Missing, name)
			continue
		}
		if name == FieldPrice {
			price, err := toPrice(v)
			if err != nil {
				verr.invalid(name, err.Error())
				continue
			}
			r.Price = price
			continue
		}
		s, ok := v.(string)
		if !ok {
			verr.invalid(name, fmt.Sprintf("must be a string, got %T", v))
			continue
		}
		switch name {
		case FieldName:
			r.Name = s
		case FieldDescription:
			r.Description = s
		case FieldCategory:
			r.Category = s
		}
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return Record{}, verr
	}
	return r, nil
}

func (e *ValidationError) invalid(field, reason string) {
	if e.Invalid == nil {
		e.Invalid = make(map[string]string)
	}
	e.Invalid[field] = reason
}

func toPrice(v any) (float64, error) {
	var p float64
	switch n := v.(type) {
	case float64:
		p = n
	case float32:
		p = float64(n)
	case int:
		p = float64(n)
	case int32:
		p = float64(n)
	case int64:
		p = float64(n)
	case uint:
		p = float64(n)
	case uint32:
		p = float64(n)
	case uint64:
		p = float64(n)
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", string(n))
		}
		p = f
	default:
		return 0, fmt.Errorf("must be a number, got %T", v)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("must be finite")
	}
	if p < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return p, nil
}

// encodeRecord produces the canonical serialization of r (JSON), compressed
// with zstd when it is large enough and compresses well.
func encodeRecord(r Record, threshold int, compressionDisabled bool) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return maybeCompress(raw, threshold, compressionDisabled), nil
}

// decodeRecord reverses encodeRecord. Uncompressed payloads are plain JSON.
func decodeRecord(payload []byte) (Record, error) {
	raw, err := decompress(payload)
	if err != nil {
		return Record{}, err
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return r, nil
}
