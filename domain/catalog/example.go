package catalog

import (
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
)

// ExampleInput is the demo decision offered to new users
func ExampleInput() entities.DecisionInput {
	return entities.DecisionInput{
		Domain:           valueobjects.DomainData,
		Title:            "Внутренняя аналитическая платформа",
		CurrentStateText: "Разрозненная аналитика, разные инструменты, нужен единый контур на 18 месяцев.",
		Options: []entities.Option{
			{ID: "A", Label: "Собственная платформа", Description: "Своя команда + кастомный пайплайн"},
			{ID: "B", Label: "Гибридный подход", Description: "Партнёр + ограниченный внутренний контур"},
			{ID: "C", Label: "Покупка и интеграция", Description: "Вендорская платформа + интеграции"},
		},
		Constraints: []string{
			"Срок — 18 месяцев",
			"Ограничение по капзатратам (CapEx)",
			"Нужен быстрый запуск первых витрин",
		},
	}
}
