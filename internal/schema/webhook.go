package schema

// WebhookEventSchema is the contract inbound messaging-provider events must
// satisfy before they are allowed to mutate the lead store.
var WebhookEventSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"phone"},
	"properties": map[string]interface{}{
		"eventType":         map[string]interface{}{"type": "string"},
		"phone":             map[string]interface{}{"type": "string", "minLength": 1},
		"name":              map[string]interface{}{"type": "string"},
		"cohort":            map[string]interface{}{"type": "string"},
		"messageVariant":    map[string]interface{}{"type": "string"},
		"externalMessageId": map[string]interface{}{"type": "string"},
		"externalLeadId":    map[string]interface{}{"type": "string"},
		"raw":               map[string]interface{}{"type": "object"},
	},
}
