package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentKeepsOrder(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"zeta": [{"url":"a","id":1}], "alpha": [], "nextId": 2}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "nextId"}, doc.Keys())
	zeta, ok := doc.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, `[{"url":"a","id":1}]`, string(zeta))

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":[{"url":"a","id":1}],"alpha":[],"nextId":2}`, string(out))
}

func TestParseDocumentDuplicateKey(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a":1,"b":2,"a":3}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, doc.Keys())
	a, _ := doc.Get("a")
	assert.Equal(t, "3", string(a))
}

func TestParseDocumentRejects(t *testing.T) {
	_, err := ParseDocument([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = ParseDocument([]byte(`"text"`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = ParseDocument([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)

	_, err = ParseDocument([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestDocumentStamp(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	doc, err := ParseDocument([]byte(`{"lastModified":0,"photos":{}}`))
	require.NoError(t, err)

	doc.Stamp(now)

	assert.Equal(t, []string{"lastModified", "photos", "serverSaved"}, doc.Keys())
	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"lastModified":1773480413000,"photos":{},"serverSaved":"2026-03-14 09:26:53"}`, string(out))
}

func TestDefaultDocument(t *testing.T) {
	doc := DefaultDocument(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t,
		`{"photos":{"ice-breaking":[],"culturelle":[],"hackathon":[],"imlil":[],"friends":[]},`+
			`"nextId":1,"lastModified":1773480413000,"serverSaved":"2026-03-14 09:26:53"}`,
		string(out))
}

func TestMarshalDoesNotEscapeHTML(t *testing.T) {
	doc := NewDocument()
	doc.Set("a<b", json.RawMessage(`"<i>é</i>"`))

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a<b":"<i>é</i>"}`, string(out))
}
