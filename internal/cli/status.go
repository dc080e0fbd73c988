package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"artistry/internal/domain"
	"artistry/internal/providers/remote"
)

var statusCmd = &cobra.Command{
	Use:   "status JOB_ID",
	Short: "Show the status of a redesign job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetBool("wait")
		interval, _ := cmd.Flags().GetDuration("interval")
		passes, _ := cmd.Flags().GetString("save-passes")

		client := apiClient(cmd)
		st, err := fetchStatus(cmd, client, args[0])
		if err != nil {
			return err
		}
		for wait && !domain.JobStatus(st.Status).Terminal() {
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(interval):
			}
			if st, err = fetchStatus(cmd, client, args[0]); err != nil {
				return err
			}
		}

		if passes != "" && st.Status == string(domain.JobStatusDone) {
			res, err := client.R().
				SetContext(cmd.Context()).
				SetPathParam("job_id", st.JobID).
				SetHeader("Accept", "application/zip").
				Get("/rooms/{job_id}/passes.zip")
			if err := remote.Check("api", res, err); err != nil {
				return err
			}
			if err := os.WriteFile(passes, res.Body(), 0o644); err != nil {
				return fmt.Errorf("write passes: %w", err)
			}
		}

		if wantJSON(cmd) {
			return printJSON(cmd, st)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "job %s %s\n", st.JobID, st.Status)
		if st.Error != nil {
			fmt.Fprintf(w, "error: %s\n", *st.Error)
		}
		if passes != "" && st.Status == string(domain.JobStatusDone) {
			fmt.Fprintf(w, "passes saved to %s\n", passes)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().String("api", "", "API base URL (default $ARTISTRY_API_URL or "+defaultAPIURL+")")
	statusCmd.Flags().Bool("wait", false, "poll until the job is done or failed")
	statusCmd.Flags().Duration("interval", 2*time.Second, "poll interval with --wait")
	statusCmd.Flags().String("save-passes", "", "write the pass archive of a done job to this file")
}
