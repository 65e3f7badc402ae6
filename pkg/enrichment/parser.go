// Package enrichment transforms raw tracker events into enriched, semantically
// labelled records: elements-chain parsing, classification, label building,
// context assembly, and the per-event pipeline that ties them together.
package enrichment

import (
	"regexp"
	"strings"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

// maxHierarchyDepth limits how many chain segments contribute to the element
// hierarchy.
const maxHierarchyDepth = 5

var (
	elementTypeRe = regexp.MustCompile(`^(?i)([a-z0-9]+)`)
	elementTextRe = regexp.MustCompile(`text="([^"]*)"`)
	altTextRe     = regexp.MustCompile(`attr__alt="([^"]*)"`)
	captureAttrRe = regexp.MustCompile(`attr__data-ph-capture-attribute-([^=]+)="([^"]*)"`)
)

// ParseElementsChain decodes a PostHog elements_chain string into structured
// element information. Extraction order, applied to the first ';'-segment:
//
//  1. element type — the leading tag name, lowercased
//  2. element text — the first text="..." value, falling back to attr__alt
//  3. custom attributes — every attr__data-ph-capture-attribute-* pair
//  4. hierarchy — tag names of the first five segments
//
// Malformed input yields a best-effort partial result, never an error. Quoted
// values are consumed greedily up to the next '"'; escaped quotes inside
// values are not supported.
func ParseElementsChain(chain string) models.ParsedElements {
	if strings.TrimSpace(chain) == "" {
		return models.ParsedElements{}
	}

	segments := strings.Split(chain, ";")
	first := strings.TrimSpace(segments[0])

	parsed := models.ParsedElements{}

	if m := elementTypeRe.FindStringSubmatch(first); m != nil {
		parsed.ElementType = strings.ToLower(m[1])
	}

	if m := elementTextRe.FindStringSubmatch(first); m != nil {
		parsed.ElementText = m[1]
	} else if m := altTextRe.FindStringSubmatch(first); m != nil {
		parsed.ElementText = m[1]
	}

	for _, m := range captureAttrRe.FindAllStringSubmatch(first, -1) {
		parsed.Attributes = append(parsed.Attributes, models.ElementAttribute{
			Name:  m[1],
			Value: m[2],
		})
	}

	limit := len(segments)
	if limit > maxHierarchyDepth {
		limit = maxHierarchyDepth
	}
	for _, segment := range segments[:limit] {
		if m := elementTypeRe.FindStringSubmatch(strings.TrimSpace(segment)); m != nil {
			parsed.Hierarchy = append(parsed.Hierarchy, strings.ToLower(m[1]))
		}
	}

	return parsed
}
