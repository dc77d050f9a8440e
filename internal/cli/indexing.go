package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhansen/plenarycrawl/internal/index"
)

var indexingCmd = &cobra.Command{
	Use:   "indexing",
	Short: "Ship extracted documents to the external search index.",
}

var indexingStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Index every unindexed document with extracted data.",
	RunE:  runIndexingStart,
}

var indexingUnindexCmd = &cobra.Command{
	Use:   "unindex",
	Short: "Remove every indexed document from the search index.",
	RunE:  runIndexingUnindex,
}

var indexingReindexCmd = &cobra.Command{
	Use:   "reindex <mapping.json>",
	Short: "Reload the index mapping and replay every document against it.",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexingReindex,
}

func init() {
	indexingCmd.AddCommand(indexingStartCmd)
	indexingCmd.AddCommand(indexingUnindexCmd)
	indexingCmd.AddCommand(indexingReindexCmd)
}

func newShipper(a *app) index.Shipper {
	return index.NewStubShipper(index.ElasticConnection{
		Addr:      a.cfg.Indexer.ESConnection,
		IndexName: a.cfg.Indexer.ESIndexname,
	})
}

func runIndexingStart(c *cobra.Command, args []string) error {
	ctx := c.Context()
	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	shipper := newShipper(a)
	docs, err := a.docs.SelectUnindexed(ctx, 10000)
	if err != nil {
		return err
	}

	var indexed int
	for _, doc := range docs {
		if err := shipper.Index(ctx, doc); err != nil {
			continue
		}
		if err := a.docs.SetIndexed(ctx, doc.ID, true); err != nil {
			return err
		}
		indexed++
	}
	fmt.Fprintf(c.OutOrStdout(), "indexed %d document(s)\n", indexed)
	return nil
}

func runIndexingUnindex(c *cobra.Command, args []string) error {
	ctx := c.Context()
	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	shipper := newShipper(a)
	docs, err := a.docs.SelectIndexed(ctx, 10000)
	if err != nil {
		return err
	}
	unindexed := 0
	for _, doc := range docs {
		if err := shipper.Unindex(ctx, doc); err != nil {
			continue
		}
		if err := a.docs.SetIndexed(ctx, doc.ID, false); err != nil {
			return err
		}
		unindexed++
	}
	fmt.Fprintf(c.OutOrStdout(), "unindexed %d document(s)\n", unindexed)
	return nil
}

func runIndexingReindex(c *cobra.Command, args []string) error {
	ctx := c.Context()
	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	shipper := newShipper(a)
	if err := shipper.Reindex(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "reindexed using mapping %s\n", args[0])
	return nil
}
