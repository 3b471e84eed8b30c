package batch

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Encoding selects how records are written
type Encoding string

const (
	EncodingText Encoding = "text"
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

// ParseEncoding validates an encoding name. Empty means text
func ParseEncoding(name string) (Encoding, error) {
	switch Encoding(name) {
	case "", EncodingText:
		return EncodingText, nil
	case EncodingJSON:
		return EncodingJSON, nil
	case EncodingYAML:
		return EncodingYAML, nil
	}
	return "", fmt.Errorf("unknown encoding %q: want text, json or yaml", name)
}

// Record is one converted input
type Record struct {
	Line      int    `json:"line,omitempty" yaml:"line,omitempty"`
	Gregorian string `json:"gregorian" yaml:"gregorian"`
	Persian   string `json:"persian" yaml:"persian"`
}

// RecordWriter writes records in one encoding
type RecordWriter interface {
	Write(rec Record) error
	Close() error
}

// NewRecordWriter returns a writer for enc on w
func NewRecordWriter(w io.Writer, enc Encoding) (RecordWriter, error) {
	switch enc {
	case "", EncodingText:
		return &textWriter{w: w}, nil
	case EncodingJSON:
		return &jsonWriter{enc: json.NewEncoder(w)}, nil
	case EncodingYAML:
		return &yamlWriter{enc: yaml.NewEncoder(w)}, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", enc)
}

type textWriter struct {
	w io.Writer
}

func (tw *textWriter) Write(rec Record) error {
	_, err := fmt.Fprintf(tw.w, "%s\t%s\n", rec.Gregorian, rec.Persian)
	return err
}

func (tw *textWriter) Close() error { return nil }

// jsonWriter emits one object per line
type jsonWriter struct {
	enc *json.Encoder
}

func (jw *jsonWriter) Write(rec Record) error {
	return jw.enc.Encode(rec)
}

func (jw *jsonWriter) Close() error { return nil }

// yamlWriter emits a YAML document stream
type yamlWriter struct {
	enc *yaml.Encoder
}

func (yw *yamlWriter) Write(rec Record) error {
	return yw.enc.Encode(rec)
}

func (yw *yamlWriter) Close() error {
	return yw.enc.Close()
}
