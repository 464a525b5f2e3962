package relay

import (
	"fmt"
	"slices"
)

// Modality names a response modality requested from the model.
type Modality string

const (
	ModalityText  Modality = "TEXT"
	ModalityAudio Modality = "AUDIO"
)

// Generation carries sampling parameters. Nil/zero fields leave the
// backend default in place.
type Generation struct {
	Temperature     *float64 // [0, 2]
	TopP            *float64 // [0, 1]
	TopK            *int     // >= 1
	MaxOutputTokens int      // 0 = backend default
}

// SafetySetting overrides the blocking threshold for one harm category.
type SafetySetting struct {
	Category  string
	Threshold string
}

// Voice selects a prebuilt voice and language for spoken output.
type Voice struct {
	Name         string
	LanguageCode string
}

// ModelConfig describes how a remote session should behave. It is built once
// at startup and shared read-only by every request.
type ModelConfig struct {
	Model             string
	Modalities        []Modality
	Generation        Generation
	Safety            []SafetySetting
	Voice             *Voice
	SystemInstruction string
}

// Validate checks bounds on the configuration.
func (c ModelConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty: %w", ErrValidation)
	}
	for _, m := range c.Modalities {
		if m != ModalityText && m != ModalityAudio {
			return fmt.Errorf("unknown modality %q: %w", m, ErrValidation)
		}
	}
	g := c.Generation
	if g.Temperature != nil && (*g.Temperature < 0 || *g.Temperature > 2) {
		return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *g.Temperature, ErrValidation)
	}
	if g.TopP != nil && (*g.TopP < 0 || *g.TopP > 1) {
		return fmt.Errorf("top_p must be in [0, 1], got %g: %w", *g.TopP, ErrValidation)
	}
	if g.TopK != nil && *g.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d: %w", *g.TopK, ErrValidation)
	}
	if g.MaxOutputTokens < 0 {
		return fmt.Errorf("max_output_tokens must be non-negative, got %d: %w", g.MaxOutputTokens, ErrValidation)
	}
	for _, s := range c.Safety {
		if s.Category == "" || s.Threshold == "" {
			return fmt.Errorf("safety setting needs category and threshold: %w", ErrValidation)
		}
	}
	if c.Voice != nil && c.Voice.Name == "" {
		return fmt.Errorf("voice name must not be empty: %w", ErrValidation)
	}
	return nil
}

// Clone returns a deep copy of c.
func (c ModelConfig) Clone() ModelConfig {
	out := c
	out.Modalities = slices.Clone(c.Modalities)
	out.Safety = slices.Clone(c.Safety)
	if c.Voice != nil {
		v := *c.Voice
		out.Voice = &v
	}
	g := c.Generation
	if g.Temperature != nil {
		t := *g.Temperature
		out.Generation.Temperature = &t
	}
	if g.TopP != nil {
		p := *g.TopP
		out.Generation.TopP = &p
	}
	if g.TopK != nil {
		k := *g.TopK
		out.Generation.TopK = &k
	}
	return out
}
