package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	rulesFilter     []string
	rulesActivate   bool
	rulesDeactivate bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List or toggle document rules.",
	Long: `With no flags, prints every known rule and whether it is active. With
one or more --rule flags and --activate or --deactivate, first flips the
active flag for exactly those rules, then prints the table.`,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().StringArrayVar(&rulesFilter, "rule", nil, "rule name to target (repeatable)")
	rulesCmd.Flags().BoolVar(&rulesActivate, "activate", false, "mark the targeted rules active")
	rulesCmd.Flags().BoolVar(&rulesDeactivate, "deactivate", false, "mark the targeted rules inactive")
}

// validateRulesFlags checks the flag combination before any connection is
// opened, so a malformed invocation fails fast instead of after paying for
// a database round trip.
func validateRulesFlags(filter []string, activate, deactivate bool) error {
	if activate && deactivate {
		return fmt.Errorf("--activate and --deactivate are mutually exclusive")
	}
	if (activate || deactivate) && len(filter) == 0 {
		return fmt.Errorf("--activate/--deactivate require at least one --rule")
	}
	return nil
}

func runRules(c *cobra.Command, args []string) error {
	if err := validateRulesFlags(rulesFilter, rulesActivate, rulesDeactivate); err != nil {
		return err
	}

	ctx := c.Context()
	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	if rulesActivate || rulesDeactivate {
		for _, name := range rulesFilter {
			if err := a.ruleDB.SetActive(ctx, name, rulesActivate); err != nil {
				return fmt.Errorf("set active for %q: %w", name, err)
			}
		}
	}

	list, err := a.ruleDB.ListRules(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tACTIVE")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%t\n", r.Name, r.Kind, r.Active)
	}
	return w.Flush()
}
