package prompt

import "fmt"

// GetSystemPrompt instruksi untuk asisten gudang
func GetSystemPrompt() string {
	return `You are a warehouse operations assistant. You answer questions about
bins, items, orders and reconciliation anomalies using ONLY the facts
provided in the user message. Facts are a JSON object resolved from the
warehouse database. Answer in one or two short sentences, plain text,
no markdown. If the facts do not contain the answer, say so. Never
invent bin ids, item ids or counts.`
}

// GetUserPrompt gabungkan pertanyaan + fakta terstruktur
func GetUserPrompt(question, facts string) string {
	return fmt.Sprintf("Question: %s\n\nFacts:\n%s", question, facts)
}
