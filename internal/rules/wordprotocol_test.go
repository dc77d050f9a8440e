package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractWordProtocol(t *testing.T) {
	path := writeFixture(t, "wordprotocol.html", `
<html><body>
<h1>Resumption of the session</h1>
<p>The President declared the session resumed.</p>
</body></html>`)

	data, err := extractWordProtocol(path)
	require.NoError(t, err)

	text, ok := data["text"].(string)
	require.True(t, ok, "expected text field to be a string, got %T", data["text"])
	assert.Contains(t, text, "Resumption of the session")
}

func TestExtractWordProtocol_MissingFile(t *testing.T) {
	_, err := extractWordProtocol("/does/not/exist.html")
	require.Error(t, err, "expected an error for a missing file")
}
