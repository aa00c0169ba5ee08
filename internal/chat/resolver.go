package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnrecognized is returned when the model cannot map the message to a
// known intent. The caller should ask the user to rephrase.
var ErrUnrecognized = errors.New("chat: could not recognize a booking request")

const resolverSystemPrompt = `You are the intake classifier for a clinic appointment assistant.

Given a patient message, identify what they want and extract any booking
details they mentioned.

Intents:
- "book": schedule a new appointment
- "reschedule": move an existing appointment
- "cancel": cancel an existing appointment
- "view": list appointments
- "unknown": none of the above

Field names you may extract (only when explicitly present in the message):
name, age, gender, contact_number, email, department, appointment_date,
appointment_time, old_date, old_time, new_date, new_time.

Keep date and time values exactly as the patient wrote them ("tomorrow",
"3pm"); do not reformat. The department is the medical specialty mentioned
(e.g. "Cardiology").

CRITICAL: Return ONLY a JSON object, nothing else. No markdown, no code
fences, no explanation. Shape:
{"intent": "book", "fields": {"name": "...", "appointment_date": "..."}}`

// Resolution is the typed result of a successful intent extraction.
type Resolution struct {
	Intent Intent            `json:"intent"`
	Fields map[string]string `json:"fields"`
}

// Resolver classifies free-text messages via the LLM boundary. Its output
// is best-effort and untrusted: callers must re-run the missing-field check
// before acting on the extracted values.
type Resolver struct {
	client      LLMClient
	model       string
	maxTokens   int32
	temperature float32
}

func NewResolver(client LLMClient, model string, maxTokens int32, temperature float32) *Resolver {
	if client == nil {
		panic("chat: llm client cannot be nil")
	}
	return &Resolver{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Resolve asks the model to classify text into an intent plus extracted
// fields. Unknown intents and unparseable model output both surface as
// ErrUnrecognized.
func (r *Resolver) Resolve(ctx context.Context, text string) (*Resolution, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrUnrecognized
	}

	resp, err := r.client.Complete(ctx, LLMRequest{
		Model:       r.model,
		System:      []string{resolverSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: text}},
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: intent resolution failed: %w", err)
	}

	var raw struct {
		Intent string            `json:"intent"`
		Fields map[string]string `json:"fields"`
	}
	payload := extractJSONObject(resp.Text)
	if payload == "" {
		return nil, ErrUnrecognized
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, ErrUnrecognized
	}

	intent, ok := ParseIntent(raw.Intent)
	if !ok {
		return nil, ErrUnrecognized
	}

	fields := make(map[string]string, len(raw.Fields))
	for k, v := range raw.Fields {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			fields[k] = v
		}
	}

	return &Resolution{Intent: intent, Fields: fields}, nil
}

var codeFenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractJSONObject pulls the first JSON object out of a model reply,
// tolerating surrounding prose and markdown code fences.
func extractJSONObject(text string) string {
	text = strings.TrimSpace(text)
	if m := codeFenceRE.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
