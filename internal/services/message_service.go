// Package services – MessageService
//
// This file implements MessageService, the application-level component that
// owns the chat submission pipeline: validate input, verify conversation
// ownership, run the side-effect triage gate, obtain a classification and a
// conversational reply from the language model, dispatch caregiver alerts for
// severe reports, and persist the user/assistant message pair atomically.
//
// Failure policy follows the triage contract: classifier failures substitute
// the fail-closed default (tagged as a fallback), conversational failures
// substitute a fixed apology, and alert delivery failures are logged and
// swallowed. No external failure ever surfaces as an error to the caller once
// the conversation has been located.
//
// Optional enhancement: it also auto-generates a conversation title from the
// first user message when the conversation still has a placeholder title.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// conversation/user identifiers and the triage category.
package services

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/gemini"
	"github.com/mediminder/mediminder-backend/internal/notify"
	"github.com/mediminder/mediminder-backend/internal/repo"
	"github.com/mediminder/mediminder-backend/internal/triage"

	"github.com/rs/zerolog/log"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"

	// default titles we consider placeholders eligible for auto-generation
	defaultTitleNew      = "New conversation"
	defaultTitleUntitled = "Untitled"
)

// MessageService coordinates message persistence and the triage pipeline.
type MessageService struct {
	DB     *gorm.DB
	Model  gemini.Generator
	Alerts notify.Notifier

	// Optional guards
	MaxMessageRunes int

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int
}

// Respond runs the full pipeline for one chat submission and returns the
// persisted assistant message. The message Category field carries the triage
// verdict (normal, side-effect, or alert) for client rendering.
func (s *MessageService) Respond(ctx context.Context, userID, conversationID, text string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Respond",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	// Normalize & validate
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(text) > s.MaxMessageRunes {
		return nil, ErrTooLong
	}

	// Ensure the conversation exists and belongs to the user
	conv, err := repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		return nil, ErrConversationNotFound
	}

	// Keyword gate: decide whether this plausibly reports a side effect
	// before spending a classification call.
	gated := triage.IsPossibleSideEffect(text)
	span.SetAttributes(attribute.Bool("triage.gated", gated))

	var (
		cls          triage.Classification
		fromFallback bool
		category     = domain.CategoryNormal
		chatContext  string
	)
	if gated {
		cls, fromFallback = s.classify(ctx, text)
		triageClassifications.WithLabelValues(cls.Severity).Inc()
		if fromFallback {
			triageFallbacks.Inc()
		}

		if cls.Severity == domain.SeveritySevere {
			category = domain.CategoryAlert
		} else {
			category = domain.CategorySideEffect
		}
		chatContext = "The user may be reporting a medication side effect classified as: " +
			cls.Severity + " - " + cls.Classification
	}
	span.SetAttributes(attribute.String("triage.category", category))

	reply := s.chat(ctx, text, chatContext)

	// Caregiver dispatch. Delivery failures must never alter the reply;
	// they are logged, counted, and otherwise ignored.
	alertWanted := gated && cls.RequiresCaregiver
	notified := false
	if alertWanted {
		notified = s.dispatchAlerts(ctx, userID, text)
	}

	// Compose the displayed reply: classification summary first, the
	// conversational response, then the caregiver notice. When the verdict
	// asked for an alert but nobody was on file to receive it, the user gets
	// told that instead of silence.
	if gated {
		reply = "Severity: " + cls.Severity + " — " + cls.Classification + "\n\n" + reply
	}
	if notified {
		reply = reply + "\n\n" + triage.CaregiverNotice
	} else if alertWanted {
		reply = reply + "\n\n" + triage.NoCaregiverNotice
	}

	// Persist user + assistant (and side effect, and maybe the title) in one
	// transaction.
	var assistantMsg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateMessage(ctx, tx, conversationID, roleUser, text, ""); err != nil {
			return err
		}
		m, err := repo.CreateMessage(ctx, tx, conversationID, roleAssistant, reply, category)
		if err != nil {
			return err
		}
		assistantMsg = m

		if gated {
			if _, err := repo.CreateSideEffect(ctx, tx, &domain.SideEffect{
				UserID:            userID,
				Description:       text,
				Severity:          cls.Severity,
				Classification:    cls.Classification,
				FromFallback:      fromFallback,
				CaregiverNotified: notified,
			}); err != nil {
				return err
			}
		}

		if s.shouldAutoTitle(conv.Title) {
			if gen := s.generateTitle(text); gen != "" {
				if uerr := tx.Model(&domain.Conversation{}).Where("id = ?", conversationID).
					Update("title", s.clipTitle(gen)).Error; uerr != nil {
					return uerr
				}
			}
		}
		return repo.TouchConversation(ctx, tx, conversationID)
	})
	if err != nil {
		return nil, err
	}
	return assistantMsg, nil
}

// ListPage returns paginated messages for a conversation owned by userID.
func (s *MessageService) ListPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if _, err := repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		return nil, 0, ErrConversationNotFound
	}
	return repo.ListMessages(ctx, s.DB, conversationID, offset, pageSize)
}

// classify asks the model for a structured verdict. Any failure along the way
// (transport, non-2xx, no JSON, unknown severity) substitutes the fail-closed
// default and reports fromFallback=true so callers and stored records can
// tell a substituted moderate apart from a genuine one.
func (s *MessageService) classify(ctx context.Context, text string) (cls triage.Classification, fromFallback bool) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "classify")
	defer span.End()

	if s.Model == nil {
		return triage.Fallback(), true
	}
	raw, err := s.Model.Generate(ctx, triage.ClassifyPrompt(text))
	if err != nil {
		log.Warn().Err(err).Msg("side-effect classification call failed, using fallback")
		return triage.Fallback(), true
	}
	cls, err = triage.ParseClassification(raw)
	if err != nil {
		log.Warn().Err(err).Msg("side-effect classification unparsable, using fallback")
		return triage.Fallback(), true
	}
	return cls, false
}

// chat obtains the conversational reply. It never returns an error; every
// failure is absorbed into the fixed apology string.
func (s *MessageService) chat(ctx context.Context, text, chatContext string) string {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "chat")
	defer span.End()

	if s.Model == nil {
		return triage.ApologyReply
	}
	reply, err := s.Model.Generate(ctx, triage.ChatPrompt(text, chatContext))
	if err != nil {
		log.Warn().Err(err).Msg("conversational model call failed, using apology reply")
		return triage.ApologyReply
	}
	return strings.TrimSpace(reply)
}

// dispatchAlerts sends the fixed-template emergency message to every
// caregiver on file and reports whether at least one dispatch was attempted.
func (s *MessageService) dispatchAlerts(ctx context.Context, userID, userText string) bool {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "dispatchAlerts")
	defer span.End()

	caregivers, err := repo.ListCaregivers(ctx, s.DB, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("listing caregivers for alert dispatch failed")
		return false
	}
	if len(caregivers) == 0 {
		log.Warn().Str("user_id", userID).Msg("severe side effect reported but no caregivers on file")
		return false
	}

	msg := triage.AlertMessage(userText)
	for _, cg := range caregivers {
		if s.Alerts == nil {
			break
		}
		err := s.Alerts.SendAlert(ctx, cg, msg)
		notify.ObserveDelivery(err)
		if err != nil {
			log.Error().Err(err).Str("caregiver_id", cg.ID).Msg("caregiver alert delivery failed")
		}
	}
	return true
}

// shouldAutoTitle reports whether the current title is a placeholder.
func (s *MessageService) shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(strings.ToLower(current))
	return t == "" || t == strings.ToLower(defaultTitleNew) || t == strings.ToLower(defaultTitleUntitled)
}

// generateTitle derives a concise title from the first user message.
func (s *MessageService) generateTitle(text string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(text), -1)
	if len(toks) == 0 {
		return ""
	}

	titleCaser := cases.Title(s.titleLocaleOrDefault())
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	return strings.Join(out, " ")
}

// clipTitle truncates a generated title to the configured maximum rune length.
func (s *MessageService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

func (s *MessageService) titleLocaleOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.English
	}
	return s.TitleLocale
}

// --- Title generation helpers ---

// Extract Unicode letters with optional trailing numbers.
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"i": {}, "my": {}, "me": {}, "have": {}, "had": {}, "am": {},
}
