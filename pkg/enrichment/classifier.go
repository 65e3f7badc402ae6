package enrichment

import (
	"strings"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

// ClassifyEvent maps a tracker event name plus its properties to an
// (event_type, action_type) pair.
//
// PostHog system events ($pageview, $pageleave, $rageclick, $autocapture) use
// a fixed mapping, $autocapture additionally dispatching on the $event_type
// property. Names without a '$' prefix are custom events whose action is
// inferred from the name. Anything else is unknown.
func ClassifyEvent(eventName string, properties models.Properties) models.EventClassification {
	switch eventName {
	case "$pageview":
		return models.EventClassification{EventType: models.EventTypePageview, ActionType: models.ActionTypeView}
	case "$pageleave":
		return models.EventClassification{EventType: models.EventTypeNavigation, ActionType: models.ActionTypeLeave}
	case "$rageclick":
		return models.EventClassification{EventType: models.EventTypeClick, ActionType: models.ActionTypeRageClick}
	case "$autocapture":
		return classifyAutocapture(properties)
	}

	if !strings.HasPrefix(eventName, "$") {
		return models.EventClassification{
			EventType:  models.EventTypeCustom,
			ActionType: inferActionFromCustomEvent(eventName),
		}
	}

	return models.EventClassification{EventType: models.EventTypeUnknown, ActionType: models.ActionTypeUnknown}
}

func classifyAutocapture(properties models.Properties) models.EventClassification {
	switch models.StringProperty(properties, "$event_type") {
	case "submit":
		return models.EventClassification{EventType: models.EventTypeClick, ActionType: models.ActionTypeSubmit}
	case "change":
		return models.EventClassification{EventType: models.EventTypeClick, ActionType: models.ActionTypeChange}
	}
	return models.EventClassification{EventType: models.EventTypeClick, ActionType: models.ActionTypeClick}
}

// inferActionFromCustomEvent guesses an action type from a custom event name.
// This is a heuristic: it assumes event names were chosen to describe the
// action they represent.
func inferActionFromCustomEvent(eventName string) models.ActionType {
	name := strings.ToLower(eventName)

	for _, keyword := range []string{"click", "select", "choose"} {
		if strings.Contains(name, keyword) {
			return models.ActionTypeClick
		}
	}
	for _, keyword := range []string{"submit", "complete", "finish"} {
		if strings.Contains(name, keyword) {
			return models.ActionTypeSubmit
		}
	}
	for _, keyword := range []string{"start", "open", "view", "navigate"} {
		if strings.Contains(name, keyword) {
			return models.ActionTypeNavigate
		}
	}

	return models.ActionTypeClick
}
