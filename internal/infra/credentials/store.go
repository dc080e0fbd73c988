// Package credentials keeps the API keys and bearer tokens the service sends
// to its collaborators, so deployments can rotate them without redeploying.
package credentials

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"artistry/internal/domain"
	"artistry/internal/infra"
	"artistry/internal/sqlinline"
)

// Provider names a collaborator that may require a credential.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderDetect    Provider = "detect"
	ProviderSegment   Provider = "segment"
	ProviderCondition Provider = "condition"
	ProviderGenerate  Provider = "generate"
)

// DefaultHeader carries credentials as "Bearer <token>".
const DefaultHeader = "Authorization"

// Providers lists every provider in a stable order.
func Providers() []Provider {
	return []Provider{ProviderGemini, ProviderDetect, ProviderSegment, ProviderCondition, ProviderGenerate}
}

// ParseProvider accepts a provider name in any case.
func ParseProvider(raw string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Providers() {
		if p == known {
			return p, nil
		}
	}
	return "", domain.NewValidationError("provider", fmt.Sprintf("unknown provider %q, want one of gemini, detect, segment, condition, generate", raw))
}

// Credential is a stored token and the request header it travels in.
type Credential struct {
	Provider  Provider  `json:"provider"`
	Token     string    `json:"token"`
	Header    string    `json:"header"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HeaderValue returns what to send in Header. The Authorization header gets a
// bearer scheme; custom headers carry the raw token.
func (c Credential) HeaderValue() string {
	if strings.EqualFold(c.Header, DefaultHeader) {
		return "Bearer " + c.Token
	}
	return c.Token
}

// Masked hides all but the last four characters of the token.
func (c Credential) Masked() string {
	if len(c.Token) <= 4 {
		return strings.Repeat("*", len(c.Token))
	}
	return strings.Repeat("*", len(c.Token)-4) + c.Token[len(c.Token)-4:]
}

// Store reads and writes collaborator_credentials.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Get returns the credential for p; ok is false when none is stored.
func (s *Store) Get(ctx context.Context, p Provider) (cred Credential, ok bool, err error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectCollaboratorCredential, string(p))
	var provider string
	if err := row.Scan(&provider, &cred.Token, &cred.Header, &cred.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return Credential{}, false, nil
		}
		return Credential{}, false, fmt.Errorf("load %s credential: %w", p, err)
	}
	cred.Provider = Provider(provider)
	cred.Token = strings.TrimSpace(cred.Token)
	return cred, cred.Token != "", nil
}

// GeminiAPIKey returns the stored Gemini key or "" when none is set.
func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	cred, _, err := s.Get(ctx, ProviderGemini)
	return cred.Token, err
}

// List returns every stored credential ordered by provider.
func (s *Store) List(ctx context.Context) ([]Credential, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListCollaboratorCredentials)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()
	var out []Credential
	for rows.Next() {
		var (
			cred     Credential
			provider string
		)
		if err := rows.Scan(&provider, &cred.Token, &cred.Header, &cred.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		cred.Provider = Provider(provider)
		cred.Token = strings.TrimSpace(cred.Token)
		out = append(out, cred)
	}
	return out, rows.Err()
}

// Set stores or replaces the credential for cred.Provider. An empty header
// means DefaultHeader.
func (s *Store) Set(ctx context.Context, cred Credential) error {
	p, err := ParseProvider(string(cred.Provider))
	if err != nil {
		return err
	}
	token := strings.TrimSpace(cred.Token)
	if token == "" {
		return domain.NewValidationError("token", "token is required")
	}
	header := strings.TrimSpace(cred.Header)
	if header == "" {
		header = DefaultHeader
	}
	header = http.CanonicalHeaderKey(header)
	if p == ProviderGemini && header != DefaultHeader {
		return domain.NewValidationError("header", "gemini keys are passed to the SDK, not as a header")
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertCollaboratorCredential, string(p), token, header); err != nil {
		return fmt.Errorf("store %s credential: %w", p, err)
	}
	return nil
}

// Delete removes the credential for p, returning domain.ErrNotFound when
// nothing was stored.
func (s *Store) Delete(ctx context.Context, p Provider) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteCollaboratorCredential, string(p))
	if err != nil {
		return fmt.Errorf("delete %s credential: %w", p, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s credential: %w", p, domain.ErrNotFound)
	}
	return nil
}

// ByProvider returns the stored non-empty credentials keyed by provider.
func (s *Store) ByProvider(ctx context.Context) (map[Provider]Credential, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[Provider]Credential, len(list))
	for _, cred := range list {
		if cred.Token != "" {
			out[cred.Provider] = cred
		}
	}
	return out, nil
}
