// File path: internal/llm/llm.go
package llm

import (
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/aquametrics/waterlens/internal/common"
	"github.com/aquametrics/waterlens/internal/llm/providers"
)

type Message = providers.Message

type Provider = providers.Provider

// NewProvider selects the OpenAI-backed provider when credentials are
// configured and falls back to the deterministic local provider otherwise.
func NewProvider() Provider {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey != "" {
		opts := []option.RequestOption{option.WithAPIKey(apiKey)}
		if timeoutStr := strings.TrimSpace(os.Getenv("OPENAI_HTTP_TIMEOUT")); timeoutStr != "" {
			timeout, err := time.ParseDuration(timeoutStr)
			if err != nil {
				logger.Warn("llm: invalid OPENAI_HTTP_TIMEOUT, using default", "value", timeoutStr, "error", err)
			} else {
				logger.Info("llm: configuring OpenAI client with custom HTTP timeout", "timeout", timeout)
				opts = append(opts, option.WithRequestTimeout(timeout))
			}
		}
		if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
			logger.Info("llm: configuring OpenAI client with custom endpoint", "endpoint", endpoint)
			opts = append(opts, option.WithBaseURL(endpoint))
		}
		client := openai.NewClient(opts...)
		logger.Info("llm: OpenAI provider selected")
		return providers.NewOpenAIProvider(client)
	}
	logger.Warn("llm: OPENAI_API_KEY not set; falling back to local provider")
	return providers.NewLocalProvider()
}

// AllowLocalEnv is the opt-in that lets a serving process run on the offline
// stub provider.
const AllowLocalEnv = "WATERLENS_ALLOW_LOCAL_PROVIDER"

// EnsureServable treats missing model credentials as a fatal startup
// misconfiguration for server processes: the stub provider cannot plan or
// summarize, so without the explicit opt-in the process must not serve.
func EnsureServable(p Provider) error {
	if p.Name() != "local" {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(AllowLocalEnv))) {
	case "1", "true", "yes":
		common.Logger().Warn("llm: serving with the offline stub provider")
		return nil
	}
	return fmt.Errorf("OPENAI_API_KEY is not set; set %s=1 to serve with the offline stub provider", AllowLocalEnv)
}
