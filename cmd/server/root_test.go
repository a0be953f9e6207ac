package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/config"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "analyze"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "opportunity-analyzer", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotNil(t, rootCmd.RunE, "bare invocation should serve")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, name := range []string{"chat-id", "ask"} {
		assert.NotNil(t, analyzeCmd.Flags().Lookup(name), "analyze should have --%s flag", name)
	}
	assert.Error(t, analyzeCmd.Args(analyzeCmd, []string{}))
	assert.NoError(t, analyzeCmd.Args(analyzeCmd, []string{"coffee", "shops"}))
}

func TestInitService_Validates(t *testing.T) {
	_, closeFn, err := initService(t.Context(), &config.Config{
		LLM: config.LLMConfig{Provider: config.ProviderOpenAI},
	})
	require.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestInitService_OpenAI(t *testing.T) {
	svc, closeFn, err := initService(t.Context(), &config.Config{
		Yelp: config.YelpConfig{APIKey: "yelp-key", ReviewLimit: 3, FetchConcurrency: 2, TimeoutSecs: 5},
		LLM: config.LLMConfig{
			Provider: config.ProviderOpenAI,
			OpenAI:   config.ProviderConfig{APIKey: "sk-test", Model: "gpt-5.1"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.NoError(t, closeFn())
}

func TestYelpOptions(t *testing.T) {
	assert.Len(t, yelpOptions(config.YelpConfig{}), 2)
	assert.Len(t, yelpOptions(config.YelpConfig{BaseURL: "http://localhost:9999", TimeoutSecs: 10}), 4)
}

func TestCompetitorBusinesses(t *testing.T) {
	got := competitorBusinesses([]models.Competitor{{ID: "a", Name: "A", YelpURL: "https://yelp.com/biz/a"}})
	assert.Equal(t, []models.Business{{ID: "a", Name: "A", URL: "https://yelp.com/biz/a"}}, got)
}
