package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// pgVector reads and writes the pgvector text form "[0.1,0.2,...]". A nil
// vector is stored as NULL.
type pgVector []float32

// GormDataType lets gorm build the schema without inspecting a nil Value
func (pgVector) GormDataType() string {
	return "vector"
}

func (v pgVector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

func (v *pgVector) Scan(src any) error {
	var text string
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		text = s
	case []byte:
		text = string(s)
	default:
		return goerr.New("unsupported vector source type", goerr.V("type", fmt.Sprintf("%T", src)))
	}

	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		return goerr.New("malformed vector literal", goerr.V("value", text))
	}
	body := strings.TrimSpace(text[1 : len(text)-1])
	if body == "" {
		*v = pgVector{}
		return nil
	}

	parts := strings.Split(body, ",")
	out := make(pgVector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return goerr.Wrap(err, "malformed vector element", goerr.V("index", i))
		}
		out[i] = float32(f)
	}
	*v = out
	return nil
}

// jsonMap stores metadata as JSONB
type jsonMap map[string]any

func (jsonMap) GormDataType() string {
	return "jsonb"
}

func (m jsonMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal metadata")
	}
	return string(data), nil
}

func (m *jsonMap) Scan(src any) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		data = []byte(s)
	case []byte:
		data = s
	default:
		return goerr.New("unsupported metadata source type", goerr.V("type", fmt.Sprintf("%T", src)))
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return goerr.Wrap(err, "failed to unmarshal metadata")
	}
	*m = out
	return nil
}
