package transport

import (
	"encoding/json"
	"net/http"

	"darkroom/internal/ndjson"
)

// Shape is the way a response body is read, decided once from the response
// status and headers.
type Shape int

const (
	ShapeRaw Shape = iota
	ShapeJSON
	ShapeBlob
	ShapeMultiStatus
)

func (s Shape) String() string {
	switch s {
	case ShapeJSON:
		return "json"
	case ShapeBlob:
		return "blob"
	case ShapeMultiStatus:
		return "multistatus"
	default:
		return "raw"
	}
}

// Outcome is the result of a successful exchange: one of JSON, Blob,
// MultiStatus or Raw.
type Outcome interface {
	Shape() Shape
}

// JSON is a JSON response body.
type JSON struct {
	Value json.RawMessage
}

func (JSON) Shape() Shape { return ShapeJSON }

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (j JSON) Decode(v any) error {
	if len(j.Value) == 0 {
		return nil
	}
	return json.Unmarshal(j.Value, v)
}

// Blob is an attachment. Path is where the Downloader stored it, if any.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
	Path        string
}

func (Blob) Shape() Shape { return ShapeBlob }

// MultiStatus holds the per-item records of a 207 response in which every
// item succeeded.
type MultiStatus struct {
	Items []ndjson.Record
}

func (MultiStatus) Shape() Shape { return ShapeMultiStatus }

// Raw is any other successful body, such as preview image bytes or the empty
// body of a 204.
type Raw struct {
	Status      int
	ContentType string
	Data        []byte
}

func (Raw) Shape() Shape { return ShapeRaw }

// negotiate picks the body shape from headers alone.
func negotiate(status int, h http.Header) Shape {
	if isAttachment(h.Get("Content-Disposition")) {
		return ShapeBlob
	}
	mt := mediaType(h.Get("Content-Type"))
	if status == http.StatusMultiStatus && mt == ndjson.ContentType {
		return ShapeMultiStatus
	}
	if mt == "application/json" {
		return ShapeJSON
	}
	return ShapeRaw
}
