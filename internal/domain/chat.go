package domain

// Chat roles accepted by the completion providers. Inbound requests may only
// carry RoleUser and RoleAssistant; RoleSystem is added during assembly.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest is a validated inbound request. Messages keep the
// conversation order and always hold at least one turn.
type GenerationRequest struct {
	Model    string
	Messages []ChatMessage
}

// AssembledPrompt is the full model input derived from a GenerationRequest.
type AssembledPrompt struct {
	SystemInstruction string
	Turns             []ChatMessage
}

// Messages returns the system instruction followed by the conversation turns.
func (p AssembledPrompt) Messages() []ChatMessage {
	out := make([]ChatMessage, 0, len(p.Turns)+1)
	out = append(out, ChatMessage{Role: RoleSystem, Content: p.SystemInstruction})
	return append(out, p.Turns...)
}
