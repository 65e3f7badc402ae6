package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

func TestBuildContext(t *testing.T) {
	properties := models.Properties{
		"$session_id": "sess-1",
		"$pathname":   "/checkout",
		"token":       "phc_secret",
		"distinct_id": "user-1",
		"plan":        "pro",
		"cart_total":  99.90,
	}
	elementInfo := models.ParsedElements{
		Attributes: []models.ElementAttribute{
			{Name: "product-id", Value: "SKU-1"},
			{Name: "product-name", Value: "Widget"},
		},
		Hierarchy: []string{"button", "div", "body"},
	}

	context := BuildContext("$autocapture", properties, elementInfo, nil)

	assert.Equal(t, models.Context{
		"plan":          "pro",
		"cart_total":    99.90,
		"product_id":    "SKU-1",
		"product_name":  "Widget",
		"hierarchy":     []string{"button", "div", "body"},
		"posthog_event": "$autocapture",
	}, context)
}

func TestBuildContextAttributesOverwriteProperties(t *testing.T) {
	properties := models.Properties{"product_id": "from-properties"}
	elementInfo := models.ParsedElements{
		Attributes: []models.ElementAttribute{{Name: "product-id", Value: "from-chain"}},
	}

	context := BuildContext("$autocapture", properties, elementInfo, nil)

	assert.Equal(t, "from-chain", context["product_id"])
}

func TestBuildContextCustomExcludedKeys(t *testing.T) {
	properties := models.Properties{"plan": "pro", "internal_flag": true}

	context := BuildContext("upgrade", properties, models.ParsedElements{}, []string{"internal_flag"})

	assert.Equal(t, "pro", context["plan"])
	assert.NotContains(t, context, "internal_flag")
}

func TestBuildContextMinimalEvent(t *testing.T) {
	context := BuildContext("$pageview", models.Properties{"$pathname": "/"}, models.ParsedElements{}, nil)

	assert.Equal(t, models.Context{"posthog_event": "$pageview"}, context)
}
