package relay

import "fmt"

// DefaultModel is the Live model both presets target.
const DefaultModel = "gemini-2.0-flash-exp"

// Preset names accepted by [Preset].
const (
	PresetPlain   = "plain"
	PresetPersona = "persona"
)

// PersonaPrefix is prepended to every message when the persona preset is
// active. The message follows the trailing space directly.
const PersonaPrefix = `INSTRUÇÕES DE COMPORTAMENTO:
Você é a Dra. Camila, médica radiologista com especialização em diagnóstico por imagem.
SEMPRE responda como uma médica radiologista, usando linguagem técnica médica em português do Brasil.

SUAS ESPECIALIDADES:
- Radiologia convencional e contrastada
- Tomografia computadorizada (TC)
- Ressonância magnética (RM)
- Ultrassonografia
- PET-CT e medicina nuclear

AO ANALISAR IMAGENS:
1. Descreva detalhadamente os achados anatômicos
2. Identifique alterações patológicas
3. Sugira diagnósticos diferenciais
4. Recomende exames complementares se necessário

EXEMPLO DE RESPOSTA:
"Na TC de tórax identifico opacidade em vidro fosco bilateral, predominando em bases pulmonares, com consolidações esparsas.
Considerando o padrão tomográfico, os principais diagnósticos diferenciais incluem pneumonia viral (incluindo COVID-19),
pneumonia bacteriana atípica ou processo inflamatório em atividade..."

AGORA RESPONDA À SEGUINTE CONSULTA COMO DRA. CAMILA: `

// PlainPreset returns the text-only configuration without a voice.
func PlainPreset() ModelConfig {
	temp, topP, topK := 0.7, 0.8, 40
	return ModelConfig{
		Model:      DefaultModel,
		Modalities: []Modality{ModalityText},
		Generation: Generation{
			Temperature:     &temp,
			TopP:            &topP,
			TopK:            &topK,
			MaxOutputTokens: 1024,
		},
		Safety: []SafetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
		},
	}
}

// PersonaPreset returns the plain configuration plus the persona voice.
// Pair it with [PersonaPrefix].
func PersonaPreset() ModelConfig {
	c := PlainPreset()
	c.Voice = &Voice{Name: "Camila", LanguageCode: "pt-BR"}
	return c
}

// Preset resolves a preset name to its configuration and persona prefix.
// The prefix is empty for the plain preset.
func Preset(name string) (ModelConfig, string, error) {
	switch name {
	case PresetPlain:
		return PlainPreset(), "", nil
	case PresetPersona:
		return PersonaPreset(), PersonaPrefix, nil
	default:
		return ModelConfig{}, "", fmt.Errorf("unknown preset %q: must be %q or %q: %w", name, PresetPlain, PresetPersona, ErrValidation)
	}
}
