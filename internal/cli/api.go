package cli

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"artistry/internal/providers/remote"
)

const defaultAPIURL = "http://localhost:8080"

type jobStatus struct {
	JobID  string          `json:"job_id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

func apiClient(cmd *cobra.Command) *resty.Client {
	base, _ := cmd.Flags().GetString("api")
	if base == "" {
		base = os.Getenv("ARTISTRY_API_URL")
	}
	if base == "" {
		base = defaultAPIURL
	}
	return remote.New(base, &http.Client{Timeout: 60 * time.Second})
}

func fetchStatus(cmd *cobra.Command, client *resty.Client, jobID string) (*jobStatus, error) {
	var out jobStatus
	res, err := client.R().
		SetContext(cmd.Context()).
		SetPathParam("job_id", jobID).
		SetResult(&out).
		Get("/rooms/{job_id}")
	if err := remote.Check("api", res, err); err != nil {
		return nil, err
	}
	return &out, nil
}
