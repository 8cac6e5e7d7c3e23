package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ErrNotObject is returned by ParseDocument when the top-level value is valid
// JSON but not an object.
var ErrNotObject = errors.New("top-level value is not an object")

// Document is the persisted photo collection: a JSON object whose members
// keep the order they were decoded or set in. Values are held as raw JSON, so
// photo records pass through untouched apart from whitespace.
type Document struct {
	keys   []string
	values map[string]json.RawMessage
}

func NewDocument() *Document {
	return &Document{values: make(map[string]json.RawMessage)}
}

// ParseDocument decodes a single JSON object. A repeated key keeps its first
// position and its last value.
func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		doc.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level object")
	}
	return doc, nil
}

// Get returns the raw value stored under key.
func (d *Document) Get(key string) (json.RawMessage, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Set replaces the value of an existing key in place or appends a new one.
func (d *Document) Set(key string, value json.RawMessage) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Keys returns the member names in document order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Stamp overwrites the server-controlled timestamps.
func (d *Document) Stamp(now time.Time) {
	d.Set(KeyLastModified, strconv.AppendInt(nil, now.UnixMilli(), 10))
	d.Set(KeyServerSaved, json.RawMessage(strconv.Quote(now.Format(ServerSavedLayout))))
}

// MarshalJSON writes the members compactly in document order without HTML
// escaping.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, k); err != nil {
			return nil, err
		}
		if err := json.Compact(&buf, d.values[k]); err != nil {
			return nil, fmt.Errorf("member %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DefaultDocument builds the transient skeleton served when no document exists.
func DefaultDocument(now time.Time) *Document {
	var photos bytes.Buffer
	photos.WriteByte('{')
	for i, c := range DefaultCategories {
		if i > 0 {
			photos.WriteByte(',')
		}
		// Category names are fixed ASCII and cannot fail to encode.
		_ = writeKey(&photos, c)
		photos.WriteString("[]")
	}
	photos.WriteByte('}')

	doc := NewDocument()
	doc.Set(KeyPhotos, photos.Bytes())
	doc.Set(KeyNextID, json.RawMessage("1"))
	doc.Stamp(now)
	return doc
}

func writeKey(buf *bytes.Buffer, key string) error {
	var kb bytes.Buffer
	enc := json.NewEncoder(&kb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(key); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(kb.Bytes(), []byte("\n")))
	buf.WriteByte(':')
	return nil
}
