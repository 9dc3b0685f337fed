package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanBody_StripsScriptAndStyle(t *testing.T) {
	body := `<html><head><style>.a { color: red; }</style></head>
<body><script>alert("hi")</script><p>Your order has shipped</p></body></html>`

	cleaned := CleanBody(body)

	assert.Contains(t, cleaned, "Your order has shipped")
	assert.NotContains(t, cleaned, "alert")
	assert.NotContains(t, cleaned, "color: red")
}

func TestCleanBody_RemovesNestedCSSBlocks(t *testing.T) {
	cleaned := CleanBody("before @media { .x { margin: 0; } } after")

	assert.Contains(t, cleaned, "before")
	assert.Contains(t, cleaned, "after")
	assert.NotContains(t, cleaned, "margin")
	assert.NotContains(t, cleaned, "{")
}

func TestCleanBody_NormalizesToPrintable(t *testing.T) {
	cleaned := CleanBody("Order #123 — confirmed™")

	assert.Equal(t, "Order#123  confirmed", cleaned)
}

func TestCleanBody_CollapsesBlankLines(t *testing.T) {
	cleaned := CleanBody("line one\n\n\n\nline two\n\n")

	assert.Equal(t, "line one\nline two", cleaned)
}
