package domain

// CompletionRequest is a single non-streaming call to a completion provider.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// Completion is the full response of a completion provider.
type Completion struct {
	Content      string
	FinishReason string
	InputTokens  int64
	OutputTokens int64
}

// FinishReasonLength is reported when the provider stopped at the output-token ceiling.
const FinishReasonLength = "length"
