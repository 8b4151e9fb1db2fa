package providers

import (
	"strings"
	"testing"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL",
		"GROQ_API_KEY", "GROQ_MODEL",
		"DEEPSEEK_API_KEY", "DEEPSEEK_MODEL",
		"OLLAMA_BASE_URL", "OLLAMA_MODEL", "OLLAMA_API_KEY",
		"LMSTUDIO_BASE_URL", "LMSTUDIO_MODEL", "LMSTUDIO_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestFactoryDefaultsToOpenAI(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	client, model, err := NewLLMClientFromEnv()
	if err != nil {
		t.Fatalf("NewLLMClientFromEnv: %v", err)
	}
	if _, ok := client.(*OpenAIClient); !ok {
		t.Fatalf("expected *OpenAIClient, got %T", client)
	}
	if model != "gpt-4o-mini" {
		t.Errorf("default model = %q, want gpt-4o-mini", model)
	}
}

func TestFactoryMissingKey(t *testing.T) {
	cases := []struct {
		provider string
		wantErr  string
	}{
		{"openai", "OPENAI_API_KEY"},
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"groq", "GROQ_API_KEY"},
		{"deepseek", "DEEPSEEK_API_KEY"},
	}
	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			clearProviderEnv(t)
			t.Setenv("LLM_PROVIDER", tc.provider)

			_, _, err := NewLLMClientFromEnv()
			if err == nil {
				t.Fatal("expected error for missing API key")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not name %s", err, tc.wantErr)
			}
		})
	}
}

func TestFactoryAnthropicModelOverride(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022")

	client, model, err := NewLLMClientFromEnv()
	if err != nil {
		t.Fatalf("NewLLMClientFromEnv: %v", err)
	}
	if _, ok := client.(*AnthropicClient); !ok {
		t.Fatalf("expected *AnthropicClient, got %T", client)
	}
	if model != "claude-3-5-haiku-20241022" {
		t.Errorf("model = %q, want override", model)
	}
}

func TestFactoryLocalProvidersNeedNoKey(t *testing.T) {
	for _, provider := range []string{"ollama", "lmstudio"} {
		t.Run(provider, func(t *testing.T) {
			clearProviderEnv(t)
			t.Setenv("LLM_PROVIDER", provider)

			client, model, err := NewLLMClientFromEnv()
			if err != nil {
				t.Fatalf("NewLLMClientFromEnv: %v", err)
			}
			if client == nil || model == "" {
				t.Fatal("expected usable client and model name")
			}
		})
	}
}

func TestFactoryUnknownProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("LLM_PROVIDER", "carrier-pigeon")

	_, _, err := NewLLMClientFromEnv()
	if err == nil || !strings.Contains(err.Error(), "unknown LLM_PROVIDER") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}
