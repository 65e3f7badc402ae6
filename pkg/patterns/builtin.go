package patterns

import (
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

// DefaultRules returns the built-in behavioural rule catalogue, loaded at
// startup. Ordered by severity: conversion blockers first, then friction
// indicators, then engagement insights.
func DefaultRules() []PatternRule {
	return []PatternRule{
		{
			Code:               "checkout_abandoned",
			Description:        "Started checkout but didn't complete order within 30 minutes",
			Severity:           models.SeverityHigh,
			Filter:             &EventFilter{SemanticContains: ptr("checkout")},
			MinCount:           1,
			NegativeFilter:     &EventFilter{SemanticContains: ptr("order")},
			NegativeTimeWindow: ptr(30 * time.Minute),
		},
		{
			Code:        "payment_failure_frustration",
			Description: "Multiple rage clicks on payment page indicating payment issues",
			Severity:    models.SeverityHigh,
			Filter: &EventFilter{
				ActionType:     ptr(models.ActionTypeRageClick),
				PagePathPrefix: ptr("/payment"),
			},
			MinCount: 2,
		},
		{
			Code:               "signup_abandonment",
			Description:        "Started signup process but didn't complete",
			Severity:           models.SeverityHigh,
			Filter:             &EventFilter{SemanticContains: ptr("signup")},
			MinCount:           1,
			NegativeFilter:     &EventFilter{SemanticContains: ptr("account created")},
			NegativeTimeWindow: ptr(15 * time.Minute),
		},
		{
			Code:        "billing_hesitation",
			Description: "Visited billing page multiple times without completing upgrade",
			Severity:    models.SeverityMedium,
			Filter: &EventFilter{
				EventType:      ptr(models.EventTypePageview),
				PagePathPrefix: ptr("/billing"),
			},
			MinCount:       3,
			NegativeFilter: &EventFilter{SemanticContains: ptr("upgrade")},
		},
		{
			Code:        "form_struggle",
			Description: "Multiple form interactions suggesting difficulty completing form",
			Severity:    models.SeverityMedium,
			Filter: &EventFilter{
				EventType:      ptr(models.EventTypeClick),
				PagePathPrefix: ptr("/contact"),
			},
			MinCount:   8,
			TimeWindow: ptr(5 * time.Minute),
		},
		{
			Code:        "price_comparison_loop",
			Description: "Repeatedly viewing pricing page without taking action",
			Severity:    models.SeverityMedium,
			Filter: &EventFilter{
				EventType:      ptr(models.EventTypePageview),
				PagePathPrefix: ptr("/pricing"),
			},
			MinCount:       4,
			NegativeFilter: &EventFilter{SemanticContains: ptr("checkout")},
		},
		{
			Code:        "quick_bounce",
			Description: "Very short session with minimal engagement",
			Severity:    models.SeverityLow,
			SessionFilter: &SessionFilter{
				MaxDurationSeconds: ptr(30.0),
				MaxEvents:          ptr(3),
			},
		},
		{
			Code:        "power_user_session",
			Description: "Extended session with high engagement",
			Severity:    models.SeverityLow,
			SessionFilter: &SessionFilter{
				MinDurationSeconds: ptr(600.0),
				MinEvents:          ptr(20),
			},
		},
		{
			Code:        "feature_exploration",
			Description: "Visited many different pages in quick succession",
			Severity:    models.SeverityLow,
			Filter:      &EventFilter{EventType: ptr(models.EventTypePageview)},
			MinCount:    8,
			TimeWindow:  ptr(10 * time.Minute),
		},
		{
			Code:           "product_comparison",
			Description:    "Viewed multiple products without purchasing",
			Severity:       models.SeverityLow,
			Filter:         &EventFilter{SemanticContains: ptr("product")},
			MinCount:       5,
			NegativeFilter: &EventFilter{SemanticContains: ptr("purchase")},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
