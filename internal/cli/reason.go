package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"artistry/internal/advise"
	"artistry/internal/domain"
)

var reasonCmd = &cobra.Command{
	Use:   "reason",
	Short: "Decide which items to replace or keep",
	Example: `  roomctl reason --condition bed=old --condition sofa=new --select bed --budget high`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringArray("condition")
		selection, _ := cmd.Flags().GetStringSlice("select")
		budget, _ := cmd.Flags().GetString("budget")

		tier, err := domain.ParseBudgetTier(budget)
		if err != nil {
			return err
		}
		conditions, err := parseConditions(pairs)
		if err != nil {
			return err
		}
		upgrade := advise.Reason(conditions, selection, tier)
		if wantJSON(cmd) {
			return printJSON(cmd, upgrade)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-16s %-8s %-3s %s\n", "ITEM", "DECISION", "PRI", "REASONING")
		fmt.Fprintf(w, "%-16s %-8s %-3s %s\n", strings.Repeat("-", 16), strings.Repeat("-", 8), strings.Repeat("-", 3), strings.Repeat("-", 9))
		for _, d := range upgrade.Decisions {
			fmt.Fprintf(w, "%-16s %-8s %-3d %s\n", d.Item, d.Decision, d.Priority, d.Reasoning)
		}
		return nil
	},
}

func init() {
	reasonCmd.Flags().StringArray("condition", nil, "item=condition pair (old, acceptable, new); repeatable")
	reasonCmd.Flags().StringSlice("select", nil, "items the user wants replaced")
	reasonCmd.Flags().String("budget", "medium", "budget tier: low, medium or high")
}

func parseConditions(pairs []string) (map[string]domain.Condition, error) {
	out := make(map[string]domain.Condition, len(pairs))
	for _, pair := range pairs {
		item, cond, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(item) == "" {
			return nil, fmt.Errorf("invalid --condition %q, want item=condition", pair)
		}
		parsed, err := domain.ParseCondition(cond)
		if err != nil {
			return nil, fmt.Errorf("--condition %q: %w", pair, err)
		}
		out[strings.TrimSpace(item)] = parsed
	}
	return out, nil
}
