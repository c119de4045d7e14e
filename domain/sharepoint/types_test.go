package sharepoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_MatchesUser(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		user      string
		expected  bool
	}{
		{
			name:      "claims login name suffix match",
			principal: Principal{LoginName: "i:0#.f|membership|jdoe@contoso.com"},
			user:      "jdoe@contoso.com",
			expected:  true,
		},
		{
			name:      "claims login match is case-insensitive",
			principal: Principal{LoginName: "i:0#.f|membership|JDoe@Contoso.com"},
			user:      "jdoe@contoso.com",
			expected:  true,
		},
		{
			name:      "exact login name match",
			principal: Principal{LoginName: "jdoe@contoso.com"},
			user:      "jdoe@contoso.com",
			expected:  true,
		},
		{
			name:      "email match",
			principal: Principal{LoginName: "i:0#.f|membership|john.doe@contoso.com", Email: "JDoe@contoso.com"},
			user:      "jdoe@contoso.com",
			expected:  true,
		},
		{
			name:      "different user does not match",
			principal: Principal{LoginName: "i:0#.f|membership|asmith@contoso.com", Email: "asmith@contoso.com"},
			user:      "jdoe@contoso.com",
			expected:  false,
		},
		{
			name:      "partial suffix without claims separator does not match",
			principal: Principal{LoginName: "xjdoe@contoso.com"},
			user:      "jdoe@contoso.com",
			expected:  false,
		},
		{
			name:      "empty user never matches",
			principal: Principal{LoginName: "i:0#.f|membership|jdoe@contoso.com"},
			user:      "",
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.principal.MatchesUser(tt.user))
		})
	}
}

func TestList_IsDocumentLibrary(t *testing.T) {
	assert.True(t, (&List{BaseTemplate: 101}).IsDocumentLibrary())
	assert.False(t, (&List{BaseTemplate: 100}).IsDocumentLibrary())
	assert.False(t, (&List{BaseTemplate: 0}).IsDocumentLibrary())
}

func TestItem_GetDisplayName(t *testing.T) {
	assert.Equal(t, "report.docx", (&Item{Name: "report.docx", GUID: "abc"}).GetDisplayName())
	assert.Equal(t, "abc", (&Item{GUID: "abc"}).GetDisplayName())
}

func TestItem_IsListItem(t *testing.T) {
	assert.True(t, (&Item{}).IsListItem())
	assert.False(t, (&Item{IsFile: true}).IsListItem())
	assert.False(t, (&Item{IsFolder: true}).IsListItem())
}
