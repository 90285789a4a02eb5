package router

import (
	"time"

	"voxrouter/internal/intent"
	"voxrouter/internal/nlu"
	"voxrouter/internal/tools"
)

// Agent names group related tools.
const (
	AgentEcommerce         = "ecommerce"
	AgentDutchLearning     = "dutch_learning"
	AgentPersonalAssistant = "personal_assistant"
	AgentHomeAutomation    = "home_automation"
)

// VoiceCommand is created per utterance by Parse and consumed by Execute.
// An empty Agent means nothing can handle it.
type VoiceCommand struct {
	RawText    string         `json:"raw_text"`
	Intent     intent.Intent  `json:"intent"`
	Confidence float64        `json:"confidence"`
	Entities   nlu.Entities   `json:"entities"`
	Agent      string         `json:"agent,omitempty"`
	Action     string         `json:"action,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type CommandResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    tools.Result `json:"data,omitempty"`
	Speak   bool         `json:"speak"`
}

type HistoryEntry struct {
	RawText string        `json:"raw_text"`
	Intent  intent.Intent `json:"intent"`
	Result  tools.Result  `json:"result"`
	At      time.Time     `json:"at"`
}
