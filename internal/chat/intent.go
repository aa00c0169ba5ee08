package chat

import "strings"

// Intent is the operation the user is asking for.
type Intent string

const (
	IntentBook       Intent = "book"
	IntentReschedule Intent = "reschedule"
	IntentCancel     Intent = "cancel"
	IntentView       Intent = "view"
)

// requiredFields lists every field an intent needs, in the order the
// assistant prompts for them. The order is part of the contract: missing
// fields are always reported in this sequence.
var requiredFields = map[Intent][]string{
	IntentBook: {
		"name",
		"age",
		"gender",
		"contact_number",
		"email",
		"department",
		"appointment_date",
		"appointment_time",
	},
	IntentReschedule: {
		"name",
		"old_date",
		"old_time",
		"new_date",
		"new_time",
	},
	IntentCancel: {
		"name",
		"appointment_date",
		"appointment_time",
	},
	IntentView: {},
}

// ParseIntent maps raw text to an Intent, reporting whether it is known.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentBook:
		return IntentBook, true
	case IntentReschedule:
		return IntentReschedule, true
	case IntentCancel:
		return IntentCancel, true
	case IntentView:
		return IntentView, true
	}
	return "", false
}

// RequiredFields returns the canonical required-field order for an intent.
// The returned slice must not be mutated by callers.
func RequiredFields(intent Intent) []string {
	return requiredFields[intent]
}
