// Package llm provides completion provider adapters.
// Each adapter implements ports.CompletionProvider and reports token usage when the backend does.
package llm

import "errors"

// Options are the generation settings shared by every provider.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

var errEmptyResponse = errors.New("empty response from completion provider")

func (o Options) withDefaults(model string) Options {
	if o.Model == "" {
		o.Model = model
	}
	if o.Temperature < 0 {
		o.Temperature = defaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	return o
}
