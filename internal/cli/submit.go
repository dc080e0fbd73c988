package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"artistry/internal/domain"
	"artistry/internal/providers/remote"
)

var submitCmd = &cobra.Command{
	Use:     "submit IMAGE",
	Short:   "Submit a room photo as an asynchronous redesign job",
	Example: `  roomctl submit living-room.jpg --prompt "warm scandinavian" --budget high --items sofa,rug`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		prompt, _ := cmd.Flags().GetString("prompt")
		budget, _ := cmd.Flags().GetString("budget")
		items, _ := cmd.Flags().GetStringSlice("items")
		session, _ := cmd.Flags().GetString("session")
		mode, _ := cmd.Flags().GetString("mode")

		body := domain.JobRequest{
			ImageB64: remote.EncodeImage(data),
			Prompt:   prompt,
			Options:  domain.JobOptions{Budget: budget, Items: items, SessionID: session, Mode: mode},
		}
		var out jobStatus
		res, err := apiClient(cmd).R().
			SetContext(cmd.Context()).
			SetBody(body).
			SetResult(&out).
			Post("/rooms")
		if err := remote.Check("api", res, err); err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(cmd, out)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "job %s %s\n", out.JobID, out.Status)
		return nil
	},
}

func init() {
	submitCmd.Flags().String("api", "", "API base URL (default $ARTISTRY_API_URL or "+defaultAPIURL+")")
	submitCmd.Flags().String("prompt", "", "design prompt")
	submitCmd.Flags().String("budget", "", "budget tier: low, medium or high")
	submitCmd.Flags().StringSlice("items", nil, "items to replace")
	submitCmd.Flags().String("session", "", "preference session id")
	submitCmd.Flags().String("mode", "", "generation mode: subtle, balanced or bold")
}
