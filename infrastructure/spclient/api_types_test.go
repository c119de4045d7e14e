package spclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCollectionPage_MinimalMetadata(t *testing.T) {
	data := []byte(`{
		"value": [{"Name": "a"}, {"Name": "b"}],
		"odata.nextLink": "https://contoso.sharepoint.com/_api/next?token=abc"
	}`)

	entries, next, err := decodeCollectionPage(data)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "https://contoso.sharepoint.com/_api/next?token=abc", next)
}

func TestDecodeCollectionPage_VerboseMetadata(t *testing.T) {
	data := []byte(`{
		"d": {
			"results": [{"Name": "a"}],
			"__next": "https://contoso.sharepoint.com/_api/next?token=xyz"
		}
	}`)

	entries, next, err := decodeCollectionPage(data)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "https://contoso.sharepoint.com/_api/next?token=xyz", next)
}

func TestDecodeCollectionPage_LastPageHasNoContinuation(t *testing.T) {
	entries, next, err := decodeCollectionPage([]byte(`{"value": []}`))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, next)
}

func TestDecodeCollectionPage_InvalidJSON(t *testing.T) {
	_, _, err := decodeCollectionPage([]byte(`{not json`))
	assert.Error(t, err)
}

func TestFileApiData_LengthDecoding(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected int64
	}{
		{
			name:     "verbose mode serializes Edm.Int64 as string",
			payload:  `{"Name": "a.docx", "Length": "123456789012"}`,
			expected: 123456789012,
		},
		{
			name:     "minimal mode serializes Edm.Int64 as number",
			payload:  `{"Name": "a.docx", "Length": 700}`,
			expected: 700,
		},
		{
			name:     "empty string is zero",
			payload:  `{"Name": "a.docx", "Length": ""}`,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var file fileApiData
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &file))
			assert.Equal(t, tt.expected, int64(file.Length))
		})
	}
}

func TestFileApiData_LengthRejectsGarbage(t *testing.T) {
	var file fileApiData
	err := json.Unmarshal([]byte(`{"Length": "not-a-number"}`), &file)
	assert.Error(t, err)
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		rel      string
		expected string
	}{
		{
			name:     "absolute path replaces base path",
			base:     "https://contoso.sharepoint.com/sites/team",
			rel:      "/sites/team/Shared Documents",
			expected: "https://contoso.sharepoint.com/sites/team/Shared%20Documents",
		},
		{
			name:     "relative path appends with separator",
			base:     "https://contoso.sharepoint.com/sites/team",
			rel:      "_api/web",
			expected: "https://contoso.sharepoint.com/sites/team/_api/web",
		},
		{
			name:     "trailing slash on base is not doubled",
			base:     "https://contoso.sharepoint.com/sites/team/",
			rel:      "_api/web",
			expected: "https://contoso.sharepoint.com/sites/team/_api/web",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, joinURL(tt.base, tt.rel))
		})
	}
}

func TestEscapeODataString(t *testing.T) {
	assert.Equal(t, "Reports", escapeODataString("Reports"))
	assert.Equal(t, "O''Brien''s Files", escapeODataString("O'Brien's Files"))
}
