package router

import (
	"fmt"
	"strings"

	"voxrouter/internal/intent"
	"voxrouter/internal/tools"
)

const defaultMessage = "Command executed successfully."

// formatResponse renders a tool result as a sentence. It is total: pairs
// without a template fall back to result["message"], then defaultMessage.
func formatResponse(cmd VoiceCommand, result tools.Result) string {
	if result == nil {
		result = tools.Result{}
	}

	var msg string
	switch cmd.Intent {
	case intent.Shopping:
		msg = formatShopping(cmd.Action, result)
	case intent.DutchLearning:
		msg = formatDutch(cmd.Action, result)
	case intent.Information:
		msg = formatCalendar(cmd.Action, result)
	case intent.Camera:
		if result.Bool("success") {
			msg = "I've taken a picture."
		} else {
			msg = "Sorry, I couldn't take a picture."
		}
	}
	if msg != "" {
		return msg
	}

	if m := result.String("message"); m != "" {
		return m
	}
	return defaultMessage
}

func formatShopping(action string, result tools.Result) string {
	switch action {
	case "product_search":
		products := result.List("products")
		if len(products) == 0 {
			return "I couldn't find any products matching that description."
		}
		p := products[0]
		return fmt.Sprintf("I found %s for $%s. Would you like to hear more options?",
			p.String("name"), tools.FormatNumber(p.Number("price")))

	case "price_compare":
		comparisons := result.List("comparisons")
		if len(comparisons) == 0 {
			return "I couldn't compare prices for that product."
		}
		best := comparisons[0]
		if result.Has("best_deal") {
			best = result.Object("best_deal")
		}
		price := best.Number("total_price")
		if !best.Has("total_price") {
			price = best.Number("price")
		}
		return fmt.Sprintf("The best price is $%s on %s.", tools.FormatNumber(price), best.String("platform"))

	case "add_to_cart":
		if !result.Bool("success") {
			return ""
		}
		name := result.Object("item").String("name")
		if name == "" {
			return "I've added that to your cart."
		}
		return fmt.Sprintf("I've added %s to your cart.", name)

	case "view_cart":
		items := result.List("items")
		if len(items) == 0 {
			return "Your cart is empty."
		}
		return fmt.Sprintf("You have %d items in your cart.", len(items))
	}
	return ""
}

func formatDutch(action string, result tools.Result) string {
	switch action {
	case "dutch_vocabulary_search":
		results := result.List("results")
		if len(results) == 0 {
			return "I couldn't find that in the vocabulary."
		}
		w := results[0]
		msg := fmt.Sprintf("In Dutch, that's '%s'.", w.String("dutch"))
		if article := w.String("article"); article != "" {
			msg += fmt.Sprintf(" Remember the article: %s %s.", article, w.String("dutch"))
		}
		return msg

	case "dutch_vocabulary_review":
		words := result.List("words")
		if len(words) == 0 {
			return "You have no words to review right now."
		}
		first := words[0]
		return fmt.Sprintf("Let's review %d words. First up: %s, which means %s.",
			len(words), first.String("dutch"), first.String("english"))
	}
	return ""
}

func formatCalendar(action string, result tools.Result) string {
	switch action {
	case "calendar_list_events":
		events := result.List("events")
		timeframe := result.String("timeframe")
		if len(events) == 0 {
			return strings.TrimSpace(fmt.Sprintf("You have no events %s", timeframe)) + "."
		}

		shown := events
		if len(shown) > 3 {
			shown = shown[:3]
		}
		parts := make([]string, 0, len(shown))
		for _, e := range shown {
			parts = append(parts, fmt.Sprintf("%s at %s", e.String("summary"), e.String("start")))
		}
		list := strings.Join(parts, ", ")

		if len(events) > 3 {
			return fmt.Sprintf("You have %d events %s. Here are the first few: %s", len(events), timeframe, list)
		}
		return fmt.Sprintf("You have %d event(s) %s: %s", len(events), timeframe, list)

	case "calendar_create_event":
		if result.Bool("success") {
			summary := result.Object("event").String("summary")
			if summary == "" {
				summary = "your event"
			}
			return "I've created the event: " + summary
		}
		reason := result.String("error")
		if reason == "" {
			reason = "unknown error"
		}
		return "Sorry, I couldn't create the event: " + reason
	}
	return ""
}
