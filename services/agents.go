package services

import (
	"github.com/krshsl/interview-coach/models"
)

const (
	resumeExcerptRunes  = 3000
	vacancyExcerptRunes = 1000
)

var agentPrompts = map[models.AgentType]string{
	models.AgentHR:         "Ты опытный HR. Проводишь поведенческое интервью. Задавай вопросы по методу STAR. После каждого ответа давай короткую обратную связь.",
	models.AgentTechLead:   "Ты опытный Tech Lead. Проводишь техническое интервью. Задавай вопросы по алгоритмам, структурам данных и System Design.",
	models.AgentMentor:     "Ты карьерный ментор. Анализируй резюме кандидата, выявляй пробелы и составляй план подготовки.",
	models.AgentCodeReview: "Ты senior разработчик. Делаешь code review. Анализируй код на корректность, сложность и стиль.",
}

var openingMessages = map[models.AgentType]string{
	models.AgentHR:         "Привет! Я проведу поведенческую часть интервью. Расскажите немного о себе и своём опыте.",
	models.AgentTechLead:   "Привет! Начнём техническое интервью. Какой у тебя основной язык программирования?",
	models.AgentMentor:     "Привет! Я твой карьерный ментор. Расскажи на какую позицию готовишься и что уже умеешь?",
	models.AgentCodeReview: "Привет! Готов к code review. Вставь свой код и я дам обратную связь.",
}

// SystemPrompt returns the persona instruction for an agent type.
func SystemPrompt(agent models.AgentType) string {
	return agentPrompts[agent]
}

// OpeningMessage returns the fixed greeting a new session starts with.
func OpeningMessage(agent models.AgentType) string {
	return openingMessages[agent]
}

// buildSystemPrompt appends resume and vacancy excerpts to the persona
// prompt. resumeText is ignored when empty.
func buildSystemPrompt(agent models.AgentType, resumeText, vacancyText string) string {
	prompt := SystemPrompt(agent)
	if resumeText != "" {
		prompt += "\n\nРЕЗЮМЕ КАНДИДАТА:\n" + truncateRunes(resumeText, resumeExcerptRunes)
	}
	if vacancyText != "" {
		prompt += "\n\nВАКАНСИЯ:\n" + truncateRunes(vacancyText, vacancyExcerptRunes)
	}
	return prompt
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
