package rules

import (
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractTableRows is the shared shape behind agenda, daily-agenda and
// voting HTML pages: each is fundamentally a <table> of rows where every
// cell maps to a named column. selector picks the table (or its rows
// directly); columns names each <td>/<th> position.
func extractTableRows(filepath string, rowSelector string, columns []string) (map[string]any, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		record := make(map[string]string, len(columns))
		row.Find("td,th").Each(func(i int, cell *goquery.Selection) {
			if i >= len(columns) {
				return
			}
			record[columns[i]] = strings.TrimSpace(cell.Text())
		})
		if len(record) > 0 {
			rows = append(rows, record)
		}
	})

	return map[string]any{
		"rows": rows,
	}, nil
}

func extractAgenda(filepath string) (map[string]any, error) {
	return extractTableRows(filepath, "table.agenda tbody tr", []string{"time", "item", "title"})
}

func extractDailyAgenda(filepath string) (map[string]any, error) {
	return extractTableRows(filepath, "table.daily-agenda tbody tr", []string{"time", "item", "title", "rapporteur"})
}

func extractVotingOverview(filepath string) (map[string]any, error) {
	return extractTableRows(filepath, "table.voting-overview tbody tr", []string{"number", "subject", "type", "result"})
}

func extractVotingNamed(filepath string) (map[string]any, error) {
	return extractTableRows(filepath, "table.voting-named tbody tr", []string{"member", "group", "vote"})
}
