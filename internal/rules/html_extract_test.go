package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "write fixture %s", name)
	return path
}

func TestExtractAgenda(t *testing.T) {
	path := writeFixture(t, "agenda.html", `
<html><body>
<table class="agenda">
<tbody>
<tr><td>09:00</td><td>1</td><td>Opening of the sitting</td></tr>
<tr><td>09:15</td><td>2</td><td>Debate on climate policy</td></tr>
</tbody>
</table>
</body></html>`)

	data, err := extractAgenda(path)
	require.NoError(t, err)

	rows, ok := data["rows"].([]map[string]string)
	require.True(t, ok, "expected rows to be []map[string]string, got %T", data["rows"])
	require.Len(t, rows, 2)
	require.Equal(t, "09:00", rows[0]["time"])
	require.Equal(t, "1", rows[0]["item"])
	require.Equal(t, "Opening of the sitting", rows[0]["title"])
}

func TestExtractVotingNamed(t *testing.T) {
	path := writeFixture(t, "voting-named.html", `
<html><body>
<table class="voting-named">
<tbody>
<tr><td>Jane Doe</td><td>Greens/EFA</td><td>+</td></tr>
</tbody>
</table>
</body></html>`)

	data, err := extractVotingNamed(path)
	require.NoError(t, err)

	rows, ok := data["rows"].([]map[string]string)
	require.True(t, ok, "expected rows to be []map[string]string, got %T", data["rows"])
	require.Len(t, rows, 1)
	require.Equal(t, "Jane Doe", rows[0]["member"])
	require.Equal(t, "+", rows[0]["vote"])
}

func TestExtractTableRows_EmptyRowsSkipped(t *testing.T) {
	path := writeFixture(t, "daily-agenda.html", `
<html><body>
<table class="daily-agenda">
<tbody>
<tr></tr>
</tbody>
</table>
</body></html>`)

	data, err := extractDailyAgenda(path)
	require.NoError(t, err)

	rows, ok := data["rows"].([]map[string]string)
	require.True(t, ok, "expected rows to be []map[string]string, got %T", data["rows"])
	require.Empty(t, rows, "expected empty rows to be skipped")
}
