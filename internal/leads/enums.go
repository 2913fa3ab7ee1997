package leads

import "strings"

const (
	fallbackProjectType = "other"
	fallbackBudget      = "unknown"
	fallbackTimeline    = "flexible"
)

var projectTypes = map[string]string{
	"Personal Portfolio":         "personal_portfolio",
	"Business / Company Website": "business_company",
	"E-commerce Website":         "ecommerce",
	"Landing Page":               "landing_page",
	"Web App / SaaS":             "web_app_saas",
	"Redesign Existing Website":  "redesign",
	"Not sure (let’s discuss)":   "other",
	"Not sure (let's discuss)":   "other",
}

var budgets = map[string]string{
	"Less than ₹5,000":  "less_5k",
	"₹5,000 – ₹10,000":  "5k_10k",
	"₹10,000 – ₹20,000": "10k_20k",
	"₹20,000 – ₹30,000": "20k_30k",
	"₹30,000+":          "plus_30k",
	"Not sure yet":      "unknown",
}

var timelines = map[string]string{
	"ASAP":       "asap",
	"1–2 weeks":  "1_2_weeks",
	"3–4 weeks":  "3_4_weeks",
	"1–2 months": "1_2_months",
	"Flexible":   "flexible",
}

func ProjectTypeCode(v string) string { return lookup(projectTypes, v, fallbackProjectType) }
func BudgetCode(v string) string      { return lookup(budgets, v, fallbackBudget) }
func TimelineCode(v string) string    { return lookup(timelines, v, fallbackTimeline) }

// lookup maps a form label to its code. A value that already is a code passes through;
// anything else gets the fallback.
func lookup(labels map[string]string, v, fallback string) string {
	v = strings.TrimSpace(v)
	if code, ok := labels[v]; ok {
		return code
	}
	for _, code := range labels {
		if code == v {
			return code
		}
	}
	return fallback
}
