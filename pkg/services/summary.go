package services

import (
	"fmt"
	"strings"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

// GenerateEventsSummary renders a short human-readable summary of a session's
// events. Pure function, no I/O. At most pagesLimit unique page titles are
// listed, in first-seen order.
func GenerateEventsSummary(events []models.EnrichedEvent, pagesLimit int) string {
	if len(events) == 0 {
		return "No activity recorded"
	}

	var pageViews, clicks, rageClicks, customEvents int
	var uniquePages []string
	seenPages := map[string]bool{}

	for _, e := range events {
		switch e.EventType {
		case models.EventTypePageview:
			pageViews++
			if e.PageTitle != nil && *e.PageTitle != "" && !seenPages[*e.PageTitle] && len(uniquePages) < pagesLimit {
				uniquePages = append(uniquePages, *e.PageTitle)
				seenPages[*e.PageTitle] = true
			}
		case models.EventTypeClick:
			clicks++
		case models.EventTypeCustom:
			customEvents++
		}
		if e.ActionType == models.ActionTypeRageClick {
			rageClicks++
		}
	}

	var parts []string
	if len(uniquePages) > 0 {
		parts = append(parts, fmt.Sprintf("Viewed %d pages including %s", pageViews, strings.Join(uniquePages, ", ")))
	} else if pageViews > 0 {
		parts = append(parts, fmt.Sprintf("Viewed %d pages", pageViews))
	}
	if clicks > 0 {
		parts = append(parts, fmt.Sprintf("Clicked %d times", clicks))
	}
	if rageClicks > 0 {
		parts = append(parts, fmt.Sprintf("Rage-clicked %d times (frustration detected)", rageClicks))
	}
	if customEvents > 0 {
		parts = append(parts, fmt.Sprintf("Triggered %d custom events", customEvents))
	}
	if len(parts) == 0 {
		parts = []string{"No significant activity"}
	}

	summary := strings.Join(parts, ". ")
	if !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary
}
