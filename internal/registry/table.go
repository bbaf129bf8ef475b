package registry

func floatPtr(v float64) *float64 { return &v }
func int32Ptr(v int32) *int32     { return &v }

var latestByProvider = map[Provider]string{
	ProviderOpenAI:    "gpt-5",
	ProviderAnthropic: "claude-opus-4-5-20251101",
	ProviderGemini:    "gemini-3-pro",
}

// VideoModelID is the fixed model used for the video generation flow.
const VideoModelID = "claude-3-opus-20240229"

var models = buildTable()

// buildTable constructs the full capability table: provider-wide defaults
// first, then overrides that each replace the whole entry value, so the
// table can never be observed half-updated.
func buildTable() map[string]Entry {
	defaultOpenAI := OpenAIParams{SupportsStreaming: true, Temperature: floatPtr(0.0)}
	defaultAnthropic := AnthropicParams{MaxTokens: 8192, Betas: []string{"output-128k-2025-02-19"}}
	defaultGemini := GeminiParams{MaxOutputTokens: 8000}

	openai := func(id, name string, p OpenAIParams) Entry {
		return Entry{
			ID:              id,
			Provider:        ProviderOpenAI,
			DisplayName:     name,
			InputModes:      []InputMode{InputText, InputImage},
			GenerationTypes: []GenerationType{GenerationCreate, GenerationUpdate},
			Params:          p,
		}
	}
	anthropic := func(id, name string, p AnthropicParams) Entry {
		return Entry{
			ID:              id,
			Provider:        ProviderAnthropic,
			DisplayName:     name,
			InputModes:      []InputMode{InputText, InputImage, InputVideo},
			GenerationTypes: []GenerationType{GenerationCreate, GenerationUpdate},
			Params:          p,
		}
	}
	gemini := func(id, name string, p GeminiParams) Entry {
		return Entry{
			ID:              id,
			Provider:        ProviderGemini,
			DisplayName:     name,
			InputModes:      []InputMode{InputImage},
			GenerationTypes: []GenerationType{GenerationCreate},
			Params:          p,
		}
	}

	entries := []Entry{
		// OpenAI
		openai("gpt-5", "GPT-5", OpenAIParams{
			SupportsStreaming:   true,
			Temperature:         floatPtr(1.0),
			MaxCompletionTokens: 32768,
		}),
		openai("gpt-5-turbo", "GPT-5 Turbo", OpenAIParams{
			SupportsStreaming:   true,
			Temperature:         floatPtr(1.0),
			MaxCompletionTokens: 32768,
		}),
		openai("gpt-4.1-2025-04-14", "GPT-4.1", OpenAIParams{
			SupportsStreaming: true,
			Temperature:       floatPtr(0.0),
			MaxTokens:         20000,
		}),
		openai("gpt-4.1-mini-2025-04-14", "GPT-4.1 Mini", OpenAIParams{
			SupportsStreaming: true,
			Temperature:       floatPtr(0.0),
			MaxTokens:         20000,
		}),
		openai("gpt-4.1-nano-2025-04-14", "GPT-4.1 Nano", OpenAIParams{
			SupportsStreaming: true,
			Temperature:       floatPtr(0.0),
			MaxTokens:         20000,
		}),
		openai("gpt-4o-2024-05-13", "GPT-4o (2024-05-13)", func() OpenAIParams {
			p := defaultOpenAI
			p.MaxTokens = 4096
			return p
		}()),
		openai("gpt-4o-2024-11-20", "GPT-4o", func() OpenAIParams {
			p := defaultOpenAI
			p.MaxTokens = 16384
			return p
		}()),
		openai("o1-2024-12-17", "o1", OpenAIParams{
			SupportsStreaming:   false,
			MaxCompletionTokens: 20000,
		}),
		openai("o3-2025-04-16", "o3", OpenAIParams{
			SupportsStreaming:   true,
			MaxCompletionTokens: 20000,
			ReasoningEffort:     "high",
		}),
		openai("o4-mini-2025-04-16", "o4-mini", OpenAIParams{
			SupportsStreaming:   true,
			MaxCompletionTokens: 20000,
			ReasoningEffort:     "high",
		}),

		// Anthropic
		anthropic("claude-3-opus-20240229", "Claude 3 Opus", defaultAnthropic),
		anthropic("claude-3-7-sonnet-20250219", "Claude 3.7 Sonnet", func() AnthropicParams {
			p := defaultAnthropic
			p.MaxTokens = 20000
			return p
		}()),
		anthropic("claude-sonnet-4-20250514", "Claude Sonnet 4", AnthropicParams{
			MaxTokens:            30000,
			UseThinking:          true,
			ThinkingBudgetTokens: 10000,
		}),
		anthropic("claude-opus-4-20250514", "Claude Opus 4", AnthropicParams{
			MaxTokens:            30000,
			UseThinking:          true,
			ThinkingBudgetTokens: 10000,
		}),
		anthropic("claude-sonnet-4-5-20251101", "Claude Sonnet 4.5", defaultAnthropic),
		anthropic("claude-opus-4-5-20251101", "Claude Opus 4.5", defaultAnthropic),

		// Gemini
		gemini("gemini-2.5-flash-preview-05-20", "Gemini 2.5 Flash", GeminiParams{
			MaxOutputTokens: 20000,
			ThinkingBudget:  int32Ptr(5000),
			IncludeThoughts: true,
		}),
		gemini("gemini-3-pro", "Gemini 3 Pro", GeminiParams{MaxOutputTokens: 32768}),
		gemini("gemini-3-pro-nano", "Gemini 3 Pro Nano", defaultGemini),
	}

	table := make(map[string]Entry, len(entries))
	for _, e := range entries {
		table[e.ID] = e
	}
	return table
}
