package router

import (
	"strings"

	"voxrouter/internal/intent"
	"voxrouter/internal/nlu"
)

// DefaultStartTime is used for new events when no time was captured.
// It invents a time instead of asking; keep it until dialogue exists.
const DefaultStartTime = "tomorrow at 2pm"

// mapToAgent fills Agent, Action and Parameters from intent, entities and
// raw text. Entity lookups accept the positional key first and then the
// names an AI fallback tends to use.
func mapToAgent(cmd *VoiceCommand) {
	text := cmd.RawText
	e := cmd.Entities

	switch cmd.Intent {
	case intent.Shopping:
		cmd.Agent = AgentEcommerce
		product := lookup(e, "group_0", "product", "product_name", "query", "item")

		switch {
		case containsAny(text, "compare", "price"):
			cmd.Action = "price_compare"
			cmd.Parameters = map[string]any{"product_name": product}
		case containsAny(text, "cart", "basket"):
			if containsAny(text, "show", "view", "check", "what's in") {
				cmd.Action = "view_cart"
				cmd.Parameters = map[string]any{}
			} else {
				cmd.Action = "add_to_cart"
				cmd.Parameters = map[string]any{"product": product}
			}
		default:
			cmd.Action = "product_search"
			cmd.Parameters = map[string]any{"query": product}
			if price, ok := number(e, "group_1", "max_price", "price_limit", "price"); ok {
				cmd.Parameters["max_price"] = price
			}
		}

	case intent.DutchLearning:
		cmd.Agent = AgentDutchLearning
		query := lookup(e, "group_0", "word", "query", "phrase", "text")

		switch {
		case containsAny(text, "translate", "how do you say", "dutch for", "dutch word", "dutch phrase"):
			cmd.Action = "dutch_vocabulary_search"
			cmd.Parameters = map[string]any{"query": query}
		case strings.Contains(text, "vocabulary"):
			cmd.Action = "dutch_vocabulary_review"
			cmd.Parameters = map[string]any{"count": 10}
		}

	case intent.Information:
		cmd.Agent = AgentPersonalAssistant
		if !containsAny(text, "calendar", "schedule", "event", "meeting") {
			return
		}

		if containsAny(text, "add", "create", "schedule") {
			start := lookup(e, "group_1", "start_time", "time", "when")
			if start == "" {
				start = DefaultStartTime
			}
			cmd.Action = "calendar_create_event"
			cmd.Parameters = map[string]any{
				"title":            lookup(e, "group_0", "title", "event", "summary"),
				"start_time":       start,
				"duration_minutes": 60,
			}
			return
		}

		timeframe := "today"
		switch {
		case strings.Contains(text, "today"):
			timeframe = "today"
		case strings.Contains(text, "tomorrow"):
			timeframe = "tomorrow"
		case strings.Contains(text, "week"):
			timeframe = "week"
		}
		cmd.Action = "calendar_list_events"
		cmd.Parameters = map[string]any{"timeframe": timeframe}

	case intent.Camera:
		cmd.Agent = AgentPersonalAssistant
		cmd.Action = "camera_capture"
		cmd.Parameters = map[string]any{}

	case intent.HomeAutomation:
		cmd.Agent = AgentHomeAutomation
		cmd.Action = "control_device"
		cmd.Parameters = map[string]any{
			"device": lookup(e, "device", "group_1"),
			"state":  lookup(e, "state", "group_0", "action"),
		}
	}
}

func lookup(e nlu.Entities, keys ...string) string {
	for _, k := range keys {
		if v, ok := e.String(k); ok {
			return v
		}
	}
	return ""
}

func number(e nlu.Entities, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := e.Number(k); ok {
			return v, true
		}
	}
	return 0, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
