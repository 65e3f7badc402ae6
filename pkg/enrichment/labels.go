package enrichment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/strutil"
)

// DefaultSemanticLabelMaxLength bounds label length when no override is
// configured.
const DefaultSemanticLabelMaxLength = 150

// DefaultCustomEventTemplates render labels for well-known custom events.
// Placeholders in braces resolve from event properties; a template with an
// unresolvable placeholder is skipped in favour of the humanized event name.
var DefaultCustomEventTemplates = map[string]string{
	"product_clicked":        "Selected product: {product_name}",
	"plan_upgrade_started":   "Started plan upgrade",
	"plan_upgrade_completed": "Completed plan upgrade to {plan_name}",
	"form_submitted":         "Submitted {form_name} form",
}

// DefaultElementEnrichmentRules rewrite a bare element type using the first
// matching captured attribute, e.g. a button with a "nav" attribute becomes
// "navigation button".
var DefaultElementEnrichmentRules = map[string]string{
	"nav":          "navigation {base_type}",
	"product-id":   "product card",
	"product-name": "product card",
	"form-id":      "{base_type} in form",
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// LabelBuilder produces short, LLM-friendly semantic labels from classified
// event data. Configurable with custom templates and a length bound.
type LabelBuilder struct {
	customTemplates map[string]string
	enrichmentRules map[string]string
	maxLength       int
}

// NewLabelBuilder creates a label builder. Nil maps and a non-positive max
// length fall back to the package defaults.
func NewLabelBuilder(customTemplates, enrichmentRules map[string]string, maxLength int) *LabelBuilder {
	if customTemplates == nil {
		customTemplates = DefaultCustomEventTemplates
	}
	if enrichmentRules == nil {
		enrichmentRules = DefaultElementEnrichmentRules
	}
	if maxLength <= 0 {
		maxLength = DefaultSemanticLabelMaxLength
	}
	return &LabelBuilder{
		customTemplates: customTemplates,
		enrichmentRules: enrichmentRules,
		maxLength:       maxLength,
	}
}

// Build renders the semantic label for one event, dispatching on the
// (event_type, action_type) pair, then truncates and capitalizes the result.
func (b *LabelBuilder) Build(
	classification models.EventClassification,
	pageInfo models.PageInfo,
	elementInfo models.ParsedElements,
	eventName string,
	properties models.Properties,
) string {
	var label string

	switch {
	case classification.EventType == models.EventTypePageview:
		label = "viewed " + pageInfo.PageTitle
	case classification.ActionType == models.ActionTypeRageClick:
		label = b.rageClickLabel(elementInfo, pageInfo)
	case classification.EventType == models.EventTypeClick:
		label = b.clickLabel(elementInfo, pageInfo)
	case classification.EventType == models.EventTypeNavigation && classification.ActionType == models.ActionTypeLeave:
		label = "left " + pageInfo.PageTitle
	case classification.EventType == models.EventTypeCustom:
		label = b.customLabel(eventName, properties)
	default:
		label = "event on " + pageInfo.PageTitle
	}

	label = strutil.Truncate(label, b.maxLength)
	return strutil.CapitalizeFirst(label)
}

func (b *LabelBuilder) clickLabel(elementInfo models.ParsedElements, pageInfo models.PageInfo) string {
	if elementInfo.ElementText != "" {
		return fmt.Sprintf("clicked '%s' %s", elementInfo.ElementText, b.enrichElementType(elementInfo))
	}

	elementType := elementInfo.ElementType
	if elementType == "" {
		elementType = "element"
	}
	return fmt.Sprintf("clicked %s on %s", elementType, pageInfo.PageTitle)
}

func (b *LabelBuilder) rageClickLabel(elementInfo models.ParsedElements, pageInfo models.PageInfo) string {
	if elementInfo.ElementText != "" {
		elementType := elementInfo.ElementType
		if elementType == "" {
			elementType = "element"
		}
		return fmt.Sprintf("rage-clicked '%s' %s", elementInfo.ElementText, elementType)
	}
	if elementInfo.ElementType != "" {
		return fmt.Sprintf("rage-clicked %s on %s", elementInfo.ElementType, pageInfo.PageTitle)
	}
	return "rage-clicked on " + pageInfo.PageTitle
}

// customLabel renders the configured template for a custom event, falling
// back to the humanized event name when no template exists or a placeholder
// cannot be resolved from the properties.
func (b *LabelBuilder) customLabel(eventName string, properties models.Properties) string {
	if eventName == "" {
		return "custom event"
	}

	if template, ok := b.customTemplates[eventName]; ok {
		if rendered, ok := renderTemplate(template, properties); ok {
			return rendered
		}
	}

	return strutil.HumanizeSnake(eventName)
}

// enrichElementType rewrites the element type using the first captured
// attribute, in chain order, that has a configured enrichment rule.
func (b *LabelBuilder) enrichElementType(elementInfo models.ParsedElements) string {
	baseType := elementInfo.ElementType
	if baseType == "" {
		baseType = "element"
	}

	for _, attr := range elementInfo.Attributes {
		if template, ok := b.enrichmentRules[attr.Name]; ok {
			return strings.ReplaceAll(template, "{base_type}", baseType)
		}
	}

	return baseType
}

// renderTemplate substitutes every {placeholder} with the matching property
// value. It reports false if any placeholder is missing from the properties.
func renderTemplate(template string, properties models.Properties) (string, bool) {
	complete := true
	rendered := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := properties[key]
		if !ok {
			complete = false
			return match
		}
		return fmt.Sprintf("%v", value)
	})
	if !complete {
		return "", false
	}
	return rendered, true
}
