package audit

import "strings"

// Action tags recorded outside the per-entity mutations.
const (
	ActionLogin                 = "LOGIN"
	ActionLogout                = "LOGOUT"
	ActionFailedLogin           = "FAILED_LOGIN"
	ActionContactFormSubmission = "CONTACT_FORM_SUBMISSION"
	ActionWebhookRevalidate     = "WEBHOOK_REVALIDATE"
	ActionSystemSeed            = "SYSTEM_SEED"
)

const (
	systemPrefix  = "SYSTEM_"
	webhookPrefix = "WEBHOOK_"
)

// ActorOptional reports whether action may be written without an actor.
func ActorOptional(action string) bool {
	switch action {
	case ActionContactFormSubmission, ActionFailedLogin:
		return true
	}

	return strings.HasPrefix(action, systemPrefix) || strings.HasPrefix(action, webhookPrefix)
}
