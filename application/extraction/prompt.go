package extraction

import (
	"fmt"
	"strings"

	"decisionmap/domain/core/entities"
)

const (
	// SystemPrompt frames the first extraction call
	SystemPrompt = "Ты работаешь как модуль извлечения структуры. Только факты из текста. Ответ строго на русском."

	// PuritySystemPrompt is used for the single retry after Latin text was found
	PuritySystemPrompt = "Ответь строго на русском без латиницы. Никаких рекомендаций. Только факты."
)

// BuildPrompt renders the user message describing the decision
func BuildPrompt(in entities.DecisionInput) string {
	options := make([]string, 0, len(in.Options))
	for _, o := range in.Options {
		line := fmt.Sprintf("%s: %s", o.ID, o.Label)
		if o.Description != "" {
			line += " — " + o.Description
		}
		options = append(options, line)
	}

	var b strings.Builder
	b.WriteString("Ты структурируешь ввод пользователя. Ты НЕ даёшь советов и НЕ оцениваешь варианты.\n")
	b.WriteString("Запрещённые слова: \"советую\", \"лучше\", \"выберите\", \"рекомендую\", \"стоит\", \"надо\".\n")
	b.WriteString("Верни JSON строго по схеме. Если данных нет — пустые массивы, не выдумывай.\n\n")
	b.WriteString("Ввод:\n")
	fmt.Fprintf(&b, "Домен: %s\n", in.Domain)
	fmt.Fprintf(&b, "Название: %s\n", in.Title)
	fmt.Fprintf(&b, "Текущее состояние: %s\n", in.CurrentStateText)
	fmt.Fprintf(&b, "Варианты: %s\n", strings.Join(options, "; "))
	fmt.Fprintf(&b, "Ограничения: %s", strings.Join(in.Constraints, "; "))
	return b.String()
}
