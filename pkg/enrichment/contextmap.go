package enrichment

import (
	"slices"
	"strings"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/strutil"
)

// DefaultContextExcludedKeys are dropped from the context map in addition to
// every '$'-prefixed tracker-internal property.
var DefaultContextExcludedKeys = []string{"token", "distinct_id"}

// BuildContext assembles the LLM context map for one event:
//
//  1. every property whose key has no '$' prefix and is not excluded
//  2. captured element attributes, renamed hyphens-to-snake (these overwrite
//     colliding property keys)
//  3. the element hierarchy, when present
//  4. the original tracker event name under "posthog_event"
//
// Pure and deterministic; no I/O.
func BuildContext(
	eventName string,
	properties models.Properties,
	elementInfo models.ParsedElements,
	excludedKeys []string,
) models.Context {
	if excludedKeys == nil {
		excludedKeys = DefaultContextExcludedKeys
	}

	context := models.Context{}
	for key, value := range properties {
		if strings.HasPrefix(key, "$") || slices.Contains(excludedKeys, key) {
			continue
		}
		context[key] = value
	}

	for _, attr := range elementInfo.Attributes {
		context[strutil.HyphensToSnake(attr.Name)] = attr.Value
	}

	if len(elementInfo.Hierarchy) > 0 {
		context["hierarchy"] = elementInfo.Hierarchy
	}

	if eventName != "" {
		context["posthog_event"] = eventName
	}

	return context
}
