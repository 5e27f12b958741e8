// Package ndjson decodes newline-delimited JSON, including streams that are
// still being received.
package ndjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// ContentType is the media type of a newline-delimited JSON body.
const ContentType = "application/x-ndjson"

// Record is one decoded line.
type Record map[string]any

// Number returns the numeric field key, if present and finite.
func (r Record) Number(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case float64:
		return n, !math.IsInf(n, 0) && !math.IsNaN(n)
	default:
		return 0, false
	}
}

// Int returns the numeric field key truncated to an integer.
func (r Record) Int(key string) (int64, bool) {
	f, ok := r.Number(key)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Code is the per-item HTTP status of a multi-status record.
func (r Record) Code() (int, bool) {
	n, ok := r.Int("code")
	return int(n), ok
}

// Failed reports whether the record carries an error status.
func (r Record) Failed() bool {
	code, ok := r.Code()
	return ok && code >= 400
}

// ParseLast decodes the last fully terminated line of buf. A trailing line
// without its terminator is still in flight and is ignored. It returns nil
// when no complete line has been received yet.
func ParseLast(buf []byte) (Record, error) {
	end := bytes.LastIndexByte(buf, '\n')
	if end < 0 {
		return nil, nil
	}
	complete := bytes.TrimRight(buf[:end], " \t\r\n")
	if len(complete) == 0 {
		return nil, nil
	}
	line := complete[bytes.LastIndexByte(complete, '\n')+1:]
	return decode(line)
}

// ParseAll decodes every line of a fully received buffer. Only trailing
// whitespace is dropped; any other line, blank or not, must be a JSON value.
func ParseAll(buf []byte) ([]Record, error) {
	trimmed := bytes.TrimRight(buf, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, nil
	}
	var out []Record
	for i, line := range bytes.Split(trimmed, []byte{'\n'}) {
		rec, err := decode(line)
		if err != nil {
			return out, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decode(line []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}
