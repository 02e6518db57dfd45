package rewrite

import (
	"fmt"
	"strings"

	"decisionmap/domain/core/entities"
)

// SystemPrompt is used for the first call of every batch
const SystemPrompt = "Ты — аналитическая система карты решений. Переписываешь последствия решений в операционном, " +
	"конкретном виде. Запрещены абстракции, консультантский язык, общие слова без последствий. " +
	"НЕЛЬЗЯ придумывать новые домены/сущности (\"пакеты\", \"сегменты\", \"поддержка\", \"рынок\", \"клиенты\", " +
	"\"продажи\", \"маркетинг\") если их нет в anchors. Каждый узел ОБЯЗАН содержать: title (3–6 слов, конкретная " +
	"фиксация), detail (2–4 предложения: что фиксируется, почему откат дорог, что закрывается). Detail ДОЛЖЕН " +
	"содержать минимум 2 якоря из anchors (точные слова/фразы или очевидные парафразы) и 1 маркер измеримости " +
	"(время: \"через 2–4 недели\", деньги: \"ежемесячные расходы\", люди: \"+1 роль\", процессы: \"согласования\", " +
	"контракты: \"обязательства\"). Без маркера измеримости узел недопустим."

// StrictSystemPrompt is used when nodes were rejected by the guard
const StrictSystemPrompt = "СТРОГИЙ РЕЖИМ: Используй ТОЛЬКО слова и фразы из anchors. НЕ придумывай новые сущности. " +
	"Каждый detail ОБЯЗАН содержать минимум 2 якоря из anchors и 1 маркер измеримости. Если якорей недостаточно, " +
	"верни detail: \"Нужны данные: <какие именно>\"."

const maxPromptAnchors = 150

var inventedEntities = []string{"пакеты", "сегменты", "поддержка", "рынок", "клиенты", "продажи", "маркетинг"}

// BuildPrompt renders the user message for a batch
func BuildPrompt(nodes []entities.MapNode, rc RewriteContext, strict bool) string {
	pack := rc.Pack
	var b strings.Builder

	fmt.Fprintf(&b, "Решение: %s\n", pack.DecisionTitle)
	fmt.Fprintf(&b, "Домен: %s\n", rc.Input.Domain)
	fmt.Fprintf(&b, "Текущее состояние: %s\n", pack.DecisionDescription)

	options := make([]string, 0, len(pack.Options))
	for _, o := range pack.Options {
		options = append(options, fmt.Sprintf("%s: %s", o.ID, o.Label))
	}
	fmt.Fprintf(&b, "Варианты: %s\n", strings.Join(options, "; "))
	fmt.Fprintf(&b, "Ограничения: %s\n", strings.Join(pack.Constraints, "; "))
	if len(pack.Actors) > 0 {
		fmt.Fprintf(&b, "Участники: %s\n", strings.Join(pack.Actors, "; "))
	}
	if len(pack.Resources) > 0 {
		fmt.Fprintf(&b, "Ресурсы: %s\n", strings.Join(pack.Resources, "; "))
	}
	if len(pack.Obligations) > 0 {
		fmt.Fprintf(&b, "Обязательства: %s\n", strings.Join(pack.Obligations, "; "))
	}

	anchors := pack.Anchors
	if len(anchors) > maxPromptAnchors {
		anchors = anchors[:maxPromptAnchors]
	}
	fmt.Fprintf(&b, "\nanchors: %s\n", strings.Join(anchors, "; "))

	if forbidden := forbiddenFor(anchors); len(forbidden) > 0 {
		fmt.Fprintf(&b, "Запрещено вводить: %s\n", strings.Join(forbidden, ", "))
	}

	b.WriteString("\nУзлы:\n")
	for _, n := range nodes {
		label, _ := pack.OptionLabel(n.OptionID)
		fmt.Fprintf(&b, "- id: %s | тип: %s | вариант: %s | title: %s | detail: %s | теги: %s\n",
			n.ID, n.Type, label, n.Title, originalDetail(n), strings.Join(n.Tags.Strings(), ", "))
	}

	b.WriteString("\nДля каждого узла верни: id, title, detail, summary, relevance_score (0–1), ")
	b.WriteString("uncertainty (low|medium|high), measurable_marker, evidence (якоря, на которые опирается текст).")
	if strict {
		b.WriteString("\nПредыдущий ответ для этих узлов отклонён: мало якорей или нет маркера измеримости.")
	}
	return b.String()
}

func forbiddenFor(anchors []string) []string {
	present := make(map[string]struct{}, len(anchors))
	for _, a := range anchors {
		present[a] = struct{}{}
	}
	out := make([]string, 0, len(inventedEntities))
	for _, w := range inventedEntities {
		if _, ok := present[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

func originalDetail(n entities.MapNode) string {
	if n.Detail != "" {
		return n.Detail
	}
	return n.Description
}
