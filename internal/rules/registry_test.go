package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_RegistersAllSixRules(t *testing.T) {
	r := NewRegistry("https://www.europarl.europa.eu/doceo/document")

	want := []string{
		"protocol_en_pdf",
		"wordprotocol_en_html",
		"agenda_en_html",
		"daily_agenda_en_html",
		"voting_overview_en_html",
		"voting_named_en_html",
	}
	for _, name := range want {
		_, ok := r.Get(name)
		assert.True(t, ok, "expected rule %q to be registered", name)
	}
	assert.Len(t, r.All(), len(want))
}

func TestRegistry_ProbeRuleName(t *testing.T) {
	r := NewRegistry("https://example.org")
	assert.Equal(t, "protocol_en_pdf", r.ProbeRuleName())
	_, ok := r.Get(r.ProbeRuleName())
	assert.True(t, ok, "probe rule name does not resolve to a registered rule")
}

func TestTemplateRule_URLFor(t *testing.T) {
	r := NewRegistry("https://www.europarl.europa.eu/doceo/document")
	date := time.Date(2021, 6, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		rule string
		want string
	}{
		{"protocol_en_pdf", "https://www.europarl.europa.eu/doceo/document/PV-9-2021-06-09_EN.pdf"},
		{"wordprotocol_en_html", "https://www.europarl.europa.eu/doceo/document/CRE-9-2021-06-09-EN.html"},
		{"agenda_en_html", "https://www.europarl.europa.eu/doceo/document/OJ-9-2021-06-09-EN.html"},
		{"daily_agenda_en_html", "https://www.europarl.europa.eu/doceo/document/OJQ-9-2021-06-09-EN.html"},
		{"voting_overview_en_html", "https://www.europarl.europa.eu/doceo/document/PV-9-2021-06-09_RCV.html"},
		{"voting_named_en_html", "https://www.europarl.europa.eu/doceo/document/PV-9-2021-06-09_VOT.html"},
	}

	for _, tt := range tests {
		rule, ok := r.Get(tt.rule)
		require.True(t, ok, "rule %q not registered", tt.rule)
		assert.Equal(t, tt.want, rule.URLFor(date), "%s.URLFor", tt.rule)
	}
}

func TestTemplateRule_ExtractData_NotImplemented(t *testing.T) {
	r := NewRegistry("https://example.org")
	rule, ok := r.Get("protocol_en_pdf")
	require.True(t, ok, "protocol_en_pdf not registered")

	_, err := rule.ExtractData("/tmp/whatever.pdf")
	require.Error(t, err, "expected ErrNotImplemented for a PDF rule")

	var notImplemented *ErrNotImplemented
	require.ErrorAs(t, err, &notImplemented)
}
