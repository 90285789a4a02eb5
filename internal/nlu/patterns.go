package nlu

import "voxrouter/internal/intent"

type patternGroup struct {
	intent   intent.Intent
	patterns []string
}

// end pins a trailing capture to the end of the utterance so lazy groups
// take the whole phrase. A trailing "please" and punctuation are dropped.
const end = `(?:\s+please)?[.!?]*$`

// Patterns are searched for anywhere in the lower-cased utterance, so lead-ins
// like "hey assistant," are ignored. Order matters: the first intent whose
// pattern fires wins.
var defaultPatterns = []patternGroup{
	{
		intent: intent.Shopping,
		patterns: []string{
			`\b(?:find|search for|search|look for|show me|get me)\s+(?:me\s+)?(?:(?:a|an|some)\s+)?(.+?)(?:\s+(?:under|for|around|about|below)\s+\$?(\d+(?:\.\d+)?)(?:\s+(?:dollars?|bucks|euros?))?)?` + end,
			`\b(?:buy|purchase|order)\s+(?:me\s+)?(?:(?:a|an|some)\s+)?(.+?)` + end,
			`\b(?:what|show)(?:'s|\s+are|\s+is)?\s+(?:the\s+)?(?:price|cost|prices)\s+(?:of|for)\s+(.+?)` + end,
			`\b(?:compare|check)\s+(?:the\s+)?prices?\s+(?:for|of|on)\s+(.+?)` + end,
			`\b(?:add|put)\s+(?:(?:a|an|some)\s+)?(.+?)\s+(?:to|in|into)\s+(?:my\s+)?(?:cart|basket|shopping cart)\b`,
			`\b(?:show|check|view|what's in)\s+(?:me\s+)?(?:my\s+)?(?:cart|basket|shopping cart)\b`,
		},
	},
	{
		intent: intent.HomeAutomation,
		patterns: []string{
			`\b(?:turn|switch)\s+(?P<state>on|off)\s+(?:the\s+)?(?P<device>.+?)` + end,
			`\b(?:turn|switch)\s+(?:the\s+)?(?P<device>.+?)\s+(?P<state>on|off)\b`,
			`\b(?:set|change)\s+(?:the\s+)?(?P<device>.+?)\s+to\s+(?P<state>.+?)` + end,
			`\b(?P<state>dim|brighten)\s+(?:the\s+)?(?P<device>.+?)` + end,
			`\bwhat(?:'s|\s+is)\s+(?:the\s+)?(?P<device>.+?)\s+(?P<state>temperature|status)\b`,
			`\b(?P<state>lock|unlock)\s+(?:the\s+)?(?P<device>.+?)` + end,
		},
	},
	{
		intent: intent.DutchLearning,
		patterns: []string{
			`\b(?:how do you say|what is|what's|translate)\s+(.+?)\s+(?:in|to|into)\s+dutch\b`,
			`\b(?:teach me|show me|tell me)\s+(?:the\s+)?dutch\s+(?:word|phrase)\s+for\s+(.+?)` + end,
			`\b(?:what(?:'s|\s+is)\s+)?(?:the\s+)?dutch\s+(?:word\s+|phrase\s+)?for\s+(.+?)` + end,
			`\b(?:practice|learn|study)\s+(.+?)` + end,
			`\b(?:save|add)\s+(?:the\s+)?(?:word|vocabulary)\s+(.+?)` + end,
			`\b(?:show|view|list|review)\s+(?:me\s+)?(?:my\s+)?vocabulary\b`,
		},
	},
	{
		intent: intent.Information,
		patterns: []string{
			`\b(?:what(?:'s|\s+is)|show|list|tell me|check)\s+(?:on\s+)?(?:my\s+)?(?:calendar|schedule|events?|agenda)\b`,
			`\b(?:do i have|what(?:'s|\s+is)|are there|any)\s+(?:any\s+)?(?:meetings?|events?|appointments?)\b`,
			`\b(?:add|create|schedule|make|book)\s+(?:an?\s+)?(?:meeting|event|appointment)\s+(?:called\s+|named\s+|about\s+)?(.+?)(?:\s+((?:tomorrow|today|at|in)\b.*?))?` + end,
			`\b(?:schedule|set up|create)\s+(.+?)\s+(?:for|on|at)\s+(.+?)` + end,
			`\b(?:cancel|delete|remove)\s+(?:my\s+)?(?:meeting|event|appointment)\s+(.+?)` + end,
			`\b(?:when is|what time is)\s+(?:my\s+)?(.+?)` + end,
		},
	},
	{
		intent: intent.Camera,
		patterns: []string{
			`\b(?:take|capture|snap)\s+(?:an?\s+)?(?:picture|photo|image|snapshot)\b`,
			`\b(?:show|display|open)\s+(?:the\s+)?camera\b`,
			`\b(?:what|identify|recognize)\s+(?:is\s+)?(?:this|that)\b`,
		},
	},
	{
		intent: intent.SystemControl,
		patterns: []string{
			`\bwhat(?:'s|\s+is)\s+(?:the\s+)?(?:time|date)\b`,
			`\bwhat(?:'s|\s+is)\s+(?:the\s+)?weather\b`,
			`\b(?:system|assistant)\s+(status|info|information)\b`,
			`\b(?:stop|quit|exit|goodbye|bye)\b`,
		},
	},
}
