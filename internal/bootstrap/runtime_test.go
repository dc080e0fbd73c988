package bootstrap

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artistry/internal/infra"
	"artistry/internal/infra/credentials"
	"artistry/internal/providers/remote"
)

func statelessConfig(t *testing.T) *infra.Config {
	t.Helper()
	return &infra.Config{
		PersistenceMode:     infra.PersistenceStateless,
		StoragePath:         t.TempDir(),
		DetectURL:           "http://127.0.0.1:1",
		SegmentURL:          "http://127.0.0.1:1",
		ConditionURL:        "http://127.0.0.1:1",
		GenerateURL:         "http://127.0.0.1:1",
		ConditionProvider:   "http",
		AnalyzerProvider:    "static",
		IntentProvider:      "keyword",
		JobDispatch:         infra.DispatchInline,
		JobConcurrency:      1,
		CollaboratorTimeout: time.Second,
		GenerationTimeout:   time.Second,
	}
}

func TestBuildStateless(t *testing.T) {
	rt, err := Build(context.Background(), statelessConfig(t), zerolog.New(io.Discard), "")
	require.NoError(t, err)
	defer rt.Close()

	assert.NotNil(t, rt.Orchestrator)
	assert.NotNil(t, rt.Generator)
	assert.NotNil(t, rt.MultiPass)
	assert.NotNil(t, rt.Artifacts)
	assert.False(t, rt.Orchestrator.Stores().Enabled())
}

func TestBuildGeminiWithoutKeyFallsBack(t *testing.T) {
	cfg := statelessConfig(t)
	cfg.AnalyzerProvider = "gemini"
	cfg.IntentProvider = "gemini"
	cfg.StoragePath = ""

	rt, err := Build(context.Background(), cfg, zerolog.New(io.Discard), "")
	require.NoError(t, err)
	defer rt.Close()
	assert.Nil(t, rt.Artifacts)
}

func TestBuildSQLite(t *testing.T) {
	cfg := statelessConfig(t)
	cfg.PersistenceMode = infra.PersistenceSQLite
	cfg.SQLitePath = t.TempDir() + "/artistry.db"

	rt, err := Build(context.Background(), cfg, zerolog.New(io.Discard), infra.DispatchQueue)
	require.NoError(t, err)
	defer rt.Close()
	assert.True(t, rt.Orchestrator.Stores().Enabled())
	assert.NotNil(t, rt.Backend.Stores.Claimer)
}

func TestAuthFor(t *testing.T) {
	creds := map[credentials.Provider]credentials.Credential{
		credentials.ProviderDetect:  {Provider: credentials.ProviderDetect, Token: "det", Header: credentials.DefaultHeader},
		credentials.ProviderSegment: {Provider: credentials.ProviderSegment, Token: "seg", Header: "X-Api-Key"},
	}

	assert.Equal(t, remote.Auth{Header: "Authorization", Value: "Bearer det"}, authFor(creds, credentials.ProviderDetect))
	assert.Equal(t, remote.Auth{Header: "X-Api-Key", Value: "seg"}, authFor(creds, credentials.ProviderSegment))
	assert.Equal(t, remote.Auth{}, authFor(creds, credentials.ProviderGenerate))
	assert.Equal(t, remote.Auth{}, authFor(nil, credentials.ProviderDetect))
}

func TestStoredCredentialsSkippedWithoutSQL(t *testing.T) {
	rt, err := Build(context.Background(), statelessConfig(t), zerolog.New(io.Discard), "")
	require.NoError(t, err)
	defer rt.Close()
	assert.Nil(t, storedCredentials(context.Background(), rt.Backend, rt.Logger))
}
