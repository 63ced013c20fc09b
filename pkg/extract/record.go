package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Job states reported by the extraction service.
const (
	StateSubmitted  = "submitted"
	StatePending    = "pending"
	StateProcessing = "processing"
	StateCompleted  = "completed"
	StateFailed     = "failed"
	StateCancelled  = "cancelled"
)

// Record is one extracted item exactly as the service returned it. The shape
// is not trusted: Fields reports an error for anything that is not an object.
type Record struct {
	raw json.RawMessage
}

// NewRecord wraps raw JSON. Mostly useful for tests and fakes.
func NewRecord(raw json.RawMessage) Record {
	return Record{raw: raw}
}

// RecordOf marshals v into a Record.
func RecordOf(v any) Record {
	b, _ := json.Marshal(v)
	return Record{raw: b}
}

// Fields decodes the record as a JSON object.
func (r Record) Fields() (map[string]any, error) {
	trimmed := bytes.TrimSpace(r.raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("record is not an object: %s", preview(trimmed))
	}
	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return fields, nil
}

// SourceURL is the page URL echoed back by the service, if any.
func (r Record) SourceURL() string {
	fields, err := r.Fields()
	if err != nil {
		return ""
	}
	for _, key := range []string{"url", "source_url", "sourceUrl"} {
		if s, ok := fields[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Raw returns the undecoded JSON.
func (r Record) Raw() json.RawMessage { return r.raw }

func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.raw) == 0 {
		return []byte("null"), nil
	}
	return r.raw, nil
}

// Result is the payload of a completed job.
type Result struct {
	JobID   string
	Records []Record
	Raw     json.RawMessage
}

// decodeRecords turns the job's data field into records. An array yields one
// record per element, an object with a "products" array yields its elements,
// and any other object becomes a single record.
func decodeRecords(data json.RawMessage) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		return decodeArray(trimmed)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("decode data object: %w", err)
		}
		if products, ok := obj["products"]; ok {
			inner := bytes.TrimSpace(products)
			if len(inner) > 0 && inner[0] == '[' {
				return decodeArray(inner)
			}
		}
		if len(obj) == 0 {
			return nil, nil
		}
		return []Record{{raw: trimmed}}, nil
	default:
		return nil, fmt.Errorf("unexpected data shape: %s", preview(trimmed))
	}
}

func decodeArray(data []byte) ([]Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode data array: %w", err)
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, Record{raw: item})
	}
	return records, nil
}

func preview(b []byte) string {
	const max = 64
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}
