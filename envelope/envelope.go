// Package envelope defines the wire format of a queued message: an opaque payload
// stored under the reserved "contents" key plus an open set of metadata fields.
package envelope

import (
	"bytes"
	"encoding/json"
	"maps"
	"reflect"
	"strconv"

	"github.com/code19m/errx"
)

// ContentsKey is the only reserved key of the wire format.
const ContentsKey = "contents"

// Well-known metadata fields.
const (
	FieldItemID               = "item_id"
	FieldRetries              = "retries"
	FieldOriginQueue          = "origin_queue"
	FieldSubmittedAt          = "submitted_at"
	FieldLastTriedAt          = "last_tried_at"
	FieldStartedProcessingAt  = "started_processing_at"
	FieldFinishedProcessingAt = "finished_processing_at"
	FieldFatalErrorAt         = "fatal_error_at"
	FieldRunAt                = "run_at"
	FieldTraceContext         = "trace_ctx"
)

// Envelope is one queued message.
type Envelope struct {
	// Contents is the job body. It must be JSON-serializable.
	Contents any

	metadata map[string]any
}

// New returns an empty envelope: no contents and no metadata.
func New() *Envelope {
	return &Envelope{metadata: map[string]any{}}
}

// Wrap returns an envelope carrying contents and a copy of metadata.
func Wrap(contents any, metadata map[string]any) *Envelope {
	e := New()
	e.Contents = contents
	for k, v := range metadata {
		e.Set(k, v)
	}
	return e
}

// Parse builds an envelope from its wire representation.
func Parse(wire string) (*Envelope, error) {
	var fields map[string]any
	if err := decode([]byte(wire), &fields); err != nil {
		return nil, errx.Wrap(err, errx.WithCode(CodeMalformedEnvelope), errx.WithDetails(errx.D{"wire": wire}))
	}
	if fields == nil {
		return nil, errx.New("[envelope]: wire message is not an object",
			errx.WithCode(CodeMalformedEnvelope),
			errx.WithDetails(errx.D{"wire": wire}))
	}

	e := New()
	e.Contents = fields[ContentsKey]
	delete(fields, ContentsKey)
	e.metadata = fields

	return e, nil
}

// Serialize encodes the envelope to its wire representation.
func (e *Envelope) Serialize() (string, error) {
	if isEmpty(e.Contents) {
		return "", errx.New("[envelope]: envelope has no contents",
			errx.WithCode(CodeMissingContent),
			errx.WithType(errx.T_Validation))
	}

	fields := make(map[string]any, len(e.metadata)+1)
	maps.Copy(fields, e.metadata)
	fields[ContentsKey] = e.Contents

	data, err := json.Marshal(fields)
	if err != nil {
		return "", errx.Wrap(err)
	}

	return string(data), nil
}

// String implements fmt.Stringer. Envelopes without contents render as an empty string.
func (e *Envelope) String() string {
	s, err := e.Serialize()
	if err != nil {
		return ""
	}
	return s
}

// Get returns the metadata value stored under key, or nil when the field is unset.
func (e *Envelope) Get(key string) any {
	if key == ContentsKey {
		return e.Contents
	}
	return e.metadata[key]
}

// Set stores value under key. Setting "contents" replaces the payload.
func (e *Envelope) Set(key string, value any) {
	if key == ContentsKey {
		e.Contents = value
		return
	}
	if e.metadata == nil {
		e.metadata = map[string]any{}
	}
	e.metadata[key] = value
}

// Has reports whether key is set in the metadata.
func (e *Envelope) Has(key string) bool {
	_, ok := e.metadata[key]
	return ok
}

// Metadata returns a shallow copy of the metadata fields.
func (e *Envelope) Metadata() map[string]any {
	return maps.Clone(e.metadata)
}

// Clone returns an independent copy of the envelope. Nested metadata values are
// copied through a JSON round trip when possible.
func (e *Envelope) Clone() *Envelope {
	c := New()
	c.Contents = e.Contents
	for k, v := range e.metadata {
		c.metadata[k] = deepCopy(v)
	}
	return c
}

func deepCopy(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var out any
		if err = decode(data, &out); err != nil {
			return v
		}
		return out
	default:
		return v
	}
}

// decode unmarshals data into v and turns every JSON number into an int when
// it is a whole number that fits, or a float64 otherwise.
func decode[T any](data []byte, v *T) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}

	switch out := any(v).(type) {
	case *map[string]any:
		for k, val := range *out {
			(*out)[k] = fromNumbers(val)
		}
	case *any:
		*out = fromNumbers(*out)
	}
	return nil
}

func fromNumbers(v any) any {
	switch c := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(c.String(), 10, strconv.IntSize); err == nil {
			return int(i)
		}
		if f, err := c.Float64(); err == nil {
			return f
		}
		return c.String()
	case map[string]any:
		for k, val := range c {
			c[k] = fromNumbers(val)
		}
		return c
	case []any:
		for i, val := range c {
			c[i] = fromNumbers(val)
		}
		return c
	default:
		return v
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}

	switch c := v.(type) {
	case string:
		return c == ""
	case []byte:
		return len(c) == 0
	case json.RawMessage:
		return len(c) == 0 || string(c) == "null"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // only container kinds can be empty
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
