package launcher

import (
	"fmt"

	"github.com/oxy-run/oxy/pkg/config"
	"github.com/oxy-run/oxy/pkg/llmclient"
)

// LLM resolves name through config.Manager, builds an llmclient.Client from
// the result, and caches it for reuse across runs (spec §6 ResolveModel,
// spec §4.7 llmclient.Client construction).
func (l *Launcher) LLM(name string) (*llmclient.Client, error) {
	l.llmMu.Lock()
	defer l.llmMu.Unlock()

	if c, ok := l.llms[name]; ok {
		return c, nil
	}

	resolved, err := l.manager.ResolveModel(name)
	if err != nil {
		return nil, fmt.Errorf("launcher: resolve llm %q: %w", name, err)
	}
	llmCfg, ok := resolved.(*config.LLMConfig)
	if !ok {
		return nil, fmt.Errorf("launcher: llm %q resolved to unexpected type %T", name, resolved)
	}

	baseURL := llmCfg.BaseURL
	if baseURL == "" {
		baseURL, err = defaultLLMBaseURL(llmCfg.Provider)
		if err != nil {
			return nil, fmt.Errorf("launcher: llm %q: %w", name, err)
		}
	}

	client := llmclient.New(llmclient.Config{
		BaseURL: baseURL,
		APIKey:  llmCfg.APIKey,
		Model:   llmCfg.Model,
		Log:     l.log,
	})
	l.llms[name] = client
	return client, nil
}

// defaultLLMBaseURL supplies the OpenAI-wire-compatible endpoint for
// providers that actually speak it. Anthropic's and Gemini's native APIs
// use a different wire format than llmclient.Client implements, so those
// providers require an explicit, OpenAI-compatible BaseURL (e.g. a gateway
// or proxy) rather than a guessed default.
func defaultLLMBaseURL(provider config.LLMProvider) (string, error) {
	switch provider {
	case config.LLMProviderOpenAI:
		return "https://api.openai.com/v1", nil
	case config.LLMProviderOllama:
		return "http://localhost:11434/v1", nil
	default:
		return "", fmt.Errorf("provider %q requires an explicit base_url (no OpenAI-compatible default)", provider)
	}
}
