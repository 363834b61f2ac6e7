package classifier

import "strings"

const promptTemplate = `You are a support ticket classifier. Read the ticket description below and return ONLY a JSON object with two string fields:
- "category": one of "billing", "technical", "account", "general"
- "priority": one of "low", "medium", "high", "critical"

Category guidelines:
- billing: payment, invoice, subscription, charge, refund
- technical: bugs, errors, crashes, performance, API
- account: login, password, profile, access, permissions
- general: everything else

Priority guidelines:
- critical: system down, data loss, cannot access at all
- high: major feature broken
- medium: feature partially working
- low: minor issue or question

Ticket: {{description}}

Respond with ONLY valid JSON, for example {"category": "general", "priority": "medium"}.`

// BuildPrompt interpolates the description verbatim into the instruction prompt.
func BuildPrompt(description string) string {
	return strings.Replace(promptTemplate, "{{description}}", description, 1)
}
