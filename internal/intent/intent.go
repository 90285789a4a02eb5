package intent

import "fmt"

// Intent is the closed category an utterance is classified into.
type Intent string

const (
	Shopping       Intent = "shopping"
	HomeAutomation Intent = "home_automation"
	DutchLearning  Intent = "dutch_learning"
	SystemControl  Intent = "system_control"
	Camera         Intent = "camera"
	Information    Intent = "information"
	Unknown        Intent = "unknown"
)

// All lists every intent in matcher iteration order. Unknown is last and has no patterns.
var All = []Intent{
	Shopping,
	HomeAutomation,
	DutchLearning,
	Information,
	Camera,
	SystemControl,
	Unknown,
}

func (i Intent) String() string {
	return string(i)
}

func (i Intent) IsValid() bool {
	for _, known := range All {
		if i == known {
			return true
		}
	}
	return false
}

// Parse resolves a name to an Intent. Unrecognised names are an error so that
// callers decide themselves whether to degrade to Unknown.
func Parse(name string) (Intent, error) {
	i := Intent(name)
	if !i.IsValid() {
		return Unknown, fmt.Errorf("unknown intent %q", name)
	}
	return i, nil
}
