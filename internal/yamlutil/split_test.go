package yamlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{"empty", "", 0},
		{"single doc", "q: shoes\npage: 2\n", 1},
		{"two docs", "q: shoes\n---\nq: boots\ntags: [red]\n", 2},
		{"leading separator", "---\nq: shoes\n", 1},
		{"trailing separator", "q: shoes\n---\n", 1},
		{"separator with trailing spaces", "q: a\n---   \nq: b\n", 2},
		{"empty doc between separators", "q: a\n---\n\n---\nq: b\n", 2},
		{"whitespace-only doc", "q: a\n---\n   \n---\nq: b\n", 2},
		{"json document", `{"q": "shoes"}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := SplitDocuments([]byte(tt.data))
			assert.Len(t, docs, tt.want)
		})
	}
}

func TestSplitDocuments_Content(t *testing.T) {
	docs := SplitDocuments([]byte("q: shoes\n---\nq: boots\n"))
	assert.Len(t, docs, 2)
	assert.Contains(t, string(docs[0]), "shoes")
	assert.Contains(t, string(docs[1]), "boots")
	assert.NotContains(t, string(docs[1]), "---")
}
