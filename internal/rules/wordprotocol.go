package rules

import (
	"bytes"
	"os"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"
)

// extractWordProtocol normalizes a word-for-word proceedings HTML page into
// plain structured text. The original rules/wordprotocol.py strips markup
// by hand; here the same normalization is delegated to html-to-markdown,
// keeping only the semantic text and discarding layout markup.
func extractWordProtocol(filepath string) (map[string]any, error) {
	raw, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	text, err := conv.ConvertNode(doc)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"text": string(text),
	}, nil
}
