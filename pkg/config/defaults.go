package config

// DefaultConfig mirrors a local development setup: an Ollama server on the
// default port with the hosted backends defined but keyless.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           18800,
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Generation: GenerationConfig{
			Backend: "ollama",
			Backends: map[string]BackendConfig{
				"ollama": {
					Provider: "ollama",
					Model:    "llama3.2:3b",
					BaseURL:  "http://localhost:11434",
				},
				"gemini": {
					Provider: "gemini",
					Model:    "gemini-2.0-flash",
				},
				"openai": {
					Provider: "openai",
					Model:    "gpt-4o-mini",
				},
				"anthropic": {
					Provider: "anthropic",
					Model:    "claude-3-5-haiku-latest",
				},
				"bedrock": {
					Provider: "bedrock",
					Model:    "anthropic.claude-3-haiku-20240307-v1:0",
					Region:   "us-east-1",
				},
			},
			Temperature:    0.8,
			TopP:           0.9,
			MaxTokens:      300,
			TimeoutSeconds: 60,
		},
		Fallback: FallbackConfig{
			Selection: SelectionRandom,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
