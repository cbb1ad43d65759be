package nlq

import "context"

// Client interface penerjemah pertanyaan gudang
type Client interface {
	Answer(ctx context.Context, question, facts string) (string, error)
}

// Response jawaban + data pendukung untuk UI
type Response struct {
	Answer string `json:"answer"`
	Data   any    `json:"data,omitempty"`
}
