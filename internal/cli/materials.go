package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"artistry/internal/advise"
	"artistry/internal/domain"
)

var materialsCmd = &cobra.Command{
	Use:     "materials ITEM...",
	Short:   "Resolve catalog materials and prices for items at a budget tier",
	Example: `  roomctl materials bed sofa --budget low
  roomctl materials curtains --guide`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, _ := cmd.Flags().GetString("budget")
		tier, err := domain.ParseBudgetTier(budget)
		if err != nil {
			return err
		}
		refinement := advise.DefaultCatalog().RefineBudget(args, string(tier))
		if wantJSON(cmd) {
			return printJSON(cmd, refinement)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-12s %-32s %-20s %s\n", "ITEM", "MATERIAL", "FINISH", "COST")
		fmt.Fprintf(w, "%-12s %-32s %-20s %s\n", strings.Repeat("-", 12), strings.Repeat("-", 32), strings.Repeat("-", 20), strings.Repeat("-", 4))
		for _, spec := range refinement.DetailedSpecs {
			fmt.Fprintf(w, "%-12s %-32s %-20s %s\n", spec.Item, truncate(spec.Material, 32), truncate(spec.Finish, 20), spec.EstimatedCost)
		}
		fmt.Fprintf(w, "\ntotal (%s): INR %d\n", refinement.Budget, refinement.TotalCost)

		if guide, _ := cmd.Flags().GetBool("guide"); guide {
			for _, spec := range refinement.DetailedSpecs {
				printGuide(w, spec.Guide)
			}
		}
		return nil
	},
}

func printGuide(w io.Writer, g advise.DIYGuide) {
	fmt.Fprintf(w, "\n== DIY: %s (%s, ~%gh) ==\n", g.Item, g.Difficulty, g.EstimatedHours)
	if !g.Detailed {
		fmt.Fprintf(w, "%s\n%s\n", g.Note, g.Recommendation)
		return
	}
	if g.SkillLevel != "" {
		fmt.Fprintf(w, "skill: %s\n", g.SkillLevel)
	}
	if len(g.Tools) > 0 {
		fmt.Fprintf(w, "tools (INR %d):\n", g.ToolCost())
		for _, t := range g.Tools {
			opt := ""
			if t.Optional {
				opt = " (optional)"
			}
			fmt.Fprintf(w, "  - %s%s, INR %d, %s\n", t.Name, opt, t.CostINR, t.Where)
		}
	}
	fmt.Fprintln(w, "steps:")
	for _, s := range g.Steps {
		if s.DurationMinutes > 0 {
			fmt.Fprintf(w, "  %d. %s [%d min]\n", s.Step, s.Title, s.DurationMinutes)
		} else {
			fmt.Fprintf(w, "  %d. %s\n", s.Step, s.Title)
		}
		if s.SafetyWarning != "" {
			fmt.Fprintf(w, "     ! %s\n", s.SafetyWarning)
		}
	}
	if len(g.SafetyTips) > 0 {
		fmt.Fprintln(w, "safety:")
		for _, tip := range g.SafetyTips {
			fmt.Fprintf(w, "  - %s\n", tip)
		}
	}
}

func init() {
	materialsCmd.Flags().String("budget", "medium", "budget tier: low, medium or high")
	materialsCmd.Flags().Bool("guide", false, "print the step-by-step DIY guide for each item")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
