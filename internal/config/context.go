package config

import "fmt"

// ContextConfig configures the token-budgeted context assembler.
type ContextConfig struct {
	// TotalBudget is the token allowance for the whole prompt.
	TotalBudget int `yaml:"total_budget"`

	// AnswerReserve is subtracted up front so the model always has room
	// to respond.
	AnswerReserve int `yaml:"answer_reserve"`

	// FloorTokens is the minimum context handed to the assembler even
	// when prompt and history are large.
	FloorTokens int `yaml:"floor_tokens"`
}

// DefaultContextConfig returns sensible defaults.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		TotalBudget:   3500,
		AnswerReserve: 500,
		FloorTokens:   500,
	}
}

// Validate checks context-budget settings.
func (c ContextConfig) Validate() error {
	if c.TotalBudget < c.FloorTokens {
		return fmt.Errorf("context.total_budget (%d) must not be below context.floor_tokens (%d)",
			c.TotalBudget, c.FloorTokens)
	}
	if c.FloorTokens < 0 || c.AnswerReserve < 0 {
		return fmt.Errorf("context reserves must not be negative")
	}
	return nil
}
