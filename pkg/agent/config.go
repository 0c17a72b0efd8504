package agent

import "time"

// Config configures the OpenAI-backed agent.
type Config struct {
	APIKey        string        `env:"OPENAI_API_KEY"`
	BaseURL       string        `env:"OPENAI_BASE_URL"`
	Model         string        `env:"AGENT_MODEL" envDefault:"gpt-4o"`
	MaxSteps      int           `env:"AGENT_MAX_STEPS" envDefault:"12"`
	SnapshotLimit int           `env:"AGENT_SNAPSHOT_LIMIT" envDefault:"30000"`
	ActionTimeout time.Duration `env:"AGENT_ACTION_TIMEOUT" envDefault:"10s"`
}
