package enrichment

import (
	"strings"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

// ExtractPageInfo derives the normalized page path and a display title from
// event properties. The path defaults to "/" and loses trailing slashes; the
// title falls back to a humanized form of the first path segment.
func ExtractPageInfo(properties models.Properties) models.PageInfo {
	pagePath := models.StringProperty(properties, "$pathname")
	if pagePath == "" {
		pagePath = "/"
	}
	pagePath = normalizePagePath(pagePath)

	pageTitle := models.StringProperty(properties, "title")
	if pageTitle == "" {
		pageTitle = humanizePagePath(pagePath)
	}

	return models.PageInfo{PagePath: pagePath, PageTitle: pageTitle}
}

// normalizePagePath strips trailing slashes, except for the root path.
func normalizePagePath(pagePath string) string {
	if pagePath == "/" {
		return pagePath
	}
	return strings.TrimRight(pagePath, "/")
}

// humanizePagePath converts a path to a readable page name, e.g. "/about" to
// "about page" and "/" to "home page". Only the first segment is used.
func humanizePagePath(pagePath string) string {
	path := strings.Trim(pagePath, "/")
	if path == "" {
		return "home page"
	}

	first := strings.SplitN(path, "/", 2)[0]
	humanized := strings.ReplaceAll(first, "_", " ")
	humanized = strings.ReplaceAll(humanized, "-", " ")
	return humanized + " page"
}
