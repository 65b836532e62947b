package config

type AI string

const (
	AIAnthropic AI = "anthropic"
	AIGemini    AI = "gemini"
	AIOpenAI    AI = "openai"
)

type Model string

const (
	ModelClaudeSonnet45 Model = "claude-sonnet-4-5"
	ModelClaudeHaiku45  Model = "claude-haiku-4-5"

	ModelGeminiV25Pro   Model = "gemini-2.5-pro"
	ModelGeminiV25Flash Model = "gemini-2.5-flash"

	ModelGPTV4o     Model = "gpt-4o"
	ModelGPTV4oMini Model = "gpt-4o-mini"
)

func SupportedAIs() []AI {
	return []AI{
		AIAnthropic,
		AIGemini,
		AIOpenAI,
	}
}

func ModelsForAI(ai AI) []Model {
	switch ai {
	case AIAnthropic:
		return []Model{
			ModelClaudeSonnet45,
			ModelClaudeHaiku45,
		}
	case AIGemini:
		return []Model{
			ModelGeminiV25Flash,
			ModelGeminiV25Pro,
		}
	case AIOpenAI:
		return []Model{
			ModelGPTV4o,
			ModelGPTV4oMini,
		}
	default:
		return []Model{}
	}
}

func DefaultModelForAI(ai AI) Model {
	models := ModelsForAI(ai)
	if len(models) == 0 {
		return ""
	}
	return models[0]
}

func IsSupportedAI(ai AI) bool {
	for _, supported := range SupportedAIs() {
		if supported == ai {
			return true
		}
	}
	return false
}
