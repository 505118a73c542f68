// Package triage implements the side-effect triage pipeline primitives:
// the keyword gate that decides whether a message plausibly reports a side
// effect, the prompts sent to the language model, and the parsing of the
// model's classification output.
//
// The gate is a deliberately recall-biased heuristic, not a medical
// classifier. Its only job is to decide whether the more expensive external
// classification call is worth making.
package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mediminder/mediminder-backend/internal/domain"
)

// Keywords is the fixed gate set. Matching is a case-insensitive substring
// check, so "breathing" matches "breathing problems" but misses misspellings.
var Keywords = []string{
	"side effect",
	"feeling sick",
	"nausea",
	"dizzy",
	"headache",
	"chest pain",
	"vomiting",
	"allergic",
	"rash",
	"breathing",
}

// IsPossibleSideEffect reports whether message contains any gate keyword.
func IsPossibleSideEffect(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Classification is the structured verdict expected back from the model.
// Field names follow the JSON contract in the classification prompt.
type Classification struct {
	Severity          string `json:"severity"`
	Classification    string `json:"classification"`
	RequiresCaregiver bool   `json:"requiresCaregiver"`
}

// Fallback is the fail-closed default substituted when classification cannot
// be obtained (transport error, non-2xx, unparsable payload). It does not
// request caregiver notification, to avoid alert storms when the classifier
// is merely unreachable.
func Fallback() Classification {
	return Classification{
		Severity:          domain.SeverityModerate,
		Classification:    "Unable to classify",
		RequiresCaregiver: false,
	}
}

// ErrNoJSON indicates the model response contained no brace-delimited JSON
// object anywhere in its text.
var ErrNoJSON = errors.New("no JSON object in model response")

// ClassifyPrompt builds the natural-language instruction that asks the model
// to classify a side-effect description and answer with a JSON object.
func ClassifyPrompt(description string) string {
	return fmt.Sprintf(`Analyze this side effect description and classify it:
%q

Respond with JSON format:
{
  "severity": "mild|moderate|severe",
  "classification": "brief medical classification",
  "requiresCaregiver": true/false
}

Severe symptoms requiring caregiver notification include: chest pain, difficulty breathing, severe allergic reactions, vomiting, dizziness, fainting, severe headaches, or any emergency symptoms.`, description)
}

// ChatPrompt builds the conversational request: a fixed supportive,
// non-diagnostic preamble, an optional triage context line, and the user
// message.
func ChatPrompt(message, context string) string {
	var b strings.Builder
	b.WriteString("You are a helpful medical assistant for MediMinder, a medication reminder app.\n")
	if context != "" {
		b.WriteString("Context: ")
		b.WriteString(context)
		b.WriteString("\n")
	}
	b.WriteString("\nUser message: ")
	b.WriteString(fmt.Sprintf("%q", message))
	b.WriteString("\n\nProvide helpful, empathetic advice about medication management, side effects, or general health questions. ")
	b.WriteString("Always recommend consulting healthcare providers for serious concerns. ")
	b.WriteString("Keep responses concise and supportive.")
	return b.String()
}

// AlertMessage renders the fixed caregiver alert template. The user text is
// embedded byte-verbatim, not escaped, so the caregiver sees exactly what the
// patient typed.
func AlertMessage(userText string) string {
	return fmt.Sprintf(`MEDICAL ALERT: Patient reported severe side effect: "%s". Please check on them immediately.`, userText)
}

// CaregiverNotice is the sentence appended to the assistant reply after an
// alert dispatch was requested.
const CaregiverNotice = "Important: I've sent an alert to your caregiver due to the severity of this side effect. Please consider seeking immediate medical attention if symptoms worsen."

// NoCaregiverNotice replaces CaregiverNotice when the classification asked
// for an alert but no caregiver could be reached, so the user is never left
// believing someone was contacted.
const NoCaregiverNotice = "Important: this side effect is serious, but you have no caregiver on file to alert. Please consider seeking immediate medical attention if symptoms worsen."

// ApologyReply is returned by the conversational path whenever the model
// call fails; the chat function never surfaces an error to its caller.
const ApologyReply = "I apologize, but I cannot provide a response right now. Please try again later."

// ExtractJSON returns the first well-formed brace-delimited JSON object found
// anywhere in text. Models are not trusted to return only JSON; replies are
// routinely wrapped in prose or markdown fences.
func ExtractJSON(text string) (string, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		if end, ok := matchBraces(text, i); ok {
			candidate := text[i : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
	}
	return "", ErrNoJSON
}

// matchBraces finds the index of the brace closing the object opened at
// start, skipping braces inside JSON string literals.
func matchBraces(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// ParseClassification extracts and decodes the classification object from a
// raw model response. Severity is normalized to lower case; an unknown or
// missing severity is an error so the caller falls back closed rather than
// acting on garbage.
func ParseClassification(text string) (Classification, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return Classification{}, err
	}

	var c Classification
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Classification{}, fmt.Errorf("decode classification: %w", err)
	}

	c.Severity = strings.ToLower(strings.TrimSpace(c.Severity))
	switch c.Severity {
	case domain.SeverityMild, domain.SeverityModerate, domain.SeveritySevere:
	default:
		return Classification{}, fmt.Errorf("unknown severity %q", c.Severity)
	}
	if strings.TrimSpace(c.Classification) == "" {
		c.Classification = "Unclassified"
	}
	return c, nil
}
