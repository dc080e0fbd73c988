// Package remote holds the HTTP plumbing shared by the collaborator clients.
package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"artistry/internal/domain"
)

// New returns a resty client bound to baseURL. A nil httpClient uses resty's
// default transport; per-call deadlines come from the request context.
func New(baseURL string, httpClient *http.Client) *resty.Client {
	var c *resty.Client
	if httpClient != nil {
		c = resty.NewWithClient(httpClient)
	} else {
		c = resty.New()
	}
	return c.
		SetDebug(false).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeaders(map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		})
}

// Auth is a header attached to every request sent to one collaborator.
type Auth struct {
	Header string
	Value  string
}

// Apply sets the header on c. A zero Auth leaves c untouched.
func (a Auth) Apply(c *resty.Client) *resty.Client {
	if strings.TrimSpace(a.Header) == "" || strings.TrimSpace(a.Value) == "" {
		return c
	}
	return c.SetHeader(a.Header, a.Value)
}

type errorBody struct {
	Detail  any    `json:"detail"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Detail extracts a human readable error message from a failed response.
func Detail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch d := eb.Detail.(type) {
		case string:
			if d != "" {
				return d
			}
		case nil:
		default:
			if raw, err := json.Marshal(d); err == nil {
				return string(raw)
			}
		}
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return detail
}

// Check converts transport failures and non-2xx responses into
// *domain.UpstreamError. A 503 whose body mentions "not loaded" also matches
// domain.ErrModelNotLoaded.
func Check(service string, res *resty.Response, err error) error {
	if err != nil {
		return &domain.UpstreamError{Service: service, Err: err}
	}
	if res == nil {
		return &domain.UpstreamError{Service: service, Err: errors.New("empty response")}
	}
	if !res.IsError() && res.StatusCode() < 300 {
		return nil
	}
	detail := Detail(res.Body())
	if detail == "" {
		detail = http.StatusText(res.StatusCode())
	}
	cause := errors.New(detail)
	if res.StatusCode() == http.StatusServiceUnavailable && strings.Contains(strings.ToLower(detail), "not loaded") {
		cause = fmt.Errorf("%w: %s", domain.ErrModelNotLoaded, detail)
	}
	return &domain.UpstreamError{Service: service, StatusCode: res.StatusCode(), Err: cause}
}

// Configured reports whether a base URL was supplied.
func Configured(service, baseURL string) error {
	if strings.TrimSpace(baseURL) == "" {
		return fmt.Errorf("%s url: %w", service, domain.ErrConfigurationMissing)
	}
	return nil
}

// EncodeImage encodes image bytes for a JSON body.
func EncodeImage(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeImage decodes a base64 image field from a collaborator response.
func DecodeImage(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, ","); strings.HasPrefix(s, "data:") && idx >= 0 {
		s = s[idx+1:]
	}
	if s == "" {
		return nil, errors.New("empty image payload")
	}
	return base64.StdEncoding.DecodeString(s)
}

// JSON prepares a POST with a JSON body whose response is decoded into
// result regardless of the Content-Type the collaborator sends.
func JSON(ctx context.Context, c *resty.Client, body, result any) *resty.Request {
	req := c.R().
		SetContext(ctx).
		SetBody(body).
		ForceContentType("application/json")
	if result != nil {
		req.SetResult(result)
	}
	return req
}
