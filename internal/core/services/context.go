package services

import (
	"strings"
	"time"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// maxContextHits bounds the hit summaries carried to the next turn.
const maxContextHits = 10

// FollowUpDetector decides whether a question continues the previous turn.
type FollowUpDetector interface {
	IsFollowUp(question string, prior *domain.SessionContext) bool
}

// ShortQuestionDetector treats short questions as follow-ups.
type ShortQuestionDetector struct {
	MaxWords int
}

// IsFollowUp implements FollowUpDetector.
func (d ShortQuestionDetector) IsFollowUp(question string, _ *domain.SessionContext) bool {
	n := len(strings.Fields(question))
	return n > 0 && n <= d.MaxWords
}

// DefaultReferenceCues are words that point back at an earlier answer.
var DefaultReferenceCues = []string{
	"dazu", "davon", "darüber", "damit", "dafür", "mehr", "weitere", "weiteren", "außerdem", "ebenfalls",
	"more", "it", "that", "those", "them", "these", "also", "further",
}

// ReferenceDetector treats questions containing a reference cue as follow-ups.
type ReferenceDetector struct {
	Cues []string
}

// IsFollowUp implements FollowUpDetector.
func (d ReferenceDetector) IsFollowUp(question string, _ *domain.SessionContext) bool {
	cues := d.Cues
	if cues == nil {
		cues = DefaultReferenceCues
	}
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, "?!.,;:")
		for _, c := range cues {
			if w == c {
				return true
			}
		}
	}
	return false
}

// AnyDetector reports a follow-up when any of its detectors does.
type AnyDetector []FollowUpDetector

// IsFollowUp implements FollowUpDetector.
func (d AnyDetector) IsFollowUp(question string, prior *domain.SessionContext) bool {
	for _, det := range d {
		if det.IsFollowUp(question, prior) {
			return true
		}
	}
	return false
}

// DefaultFollowUpDetector combines the short-question and reference checks.
func DefaultFollowUpDetector(maxWords int) FollowUpDetector {
	return AnyDetector{ShortQuestionDetector{MaxWords: maxWords}, ReferenceDetector{}}
}

// ContextManager blends questions with the previous turn of a conversation.
type ContextManager struct {
	detector FollowUpDetector
}

// NewContextManager creates a context manager using the given detector.
func NewContextManager(detector FollowUpDetector) *ContextManager {
	return &ContextManager{detector: detector}
}

// Blend builds the question for this turn. With influence 0 the effective
// question is raw, exactly as asked. Without prior context, or when the
// question is not a follow-up, it is the normalized question.
func (m *ContextManager) Blend(raw string, prior *domain.SessionContext, influence int) domain.Question {
	q := domain.NewQuestion(raw, prior)
	if influence <= 0 {
		q.Effective = raw
		return q
	}
	if prior == nil || prior.PreviousQuestion == "" || m.detector == nil {
		return q
	}
	if !m.detector.IsFollowUp(q.Normalized, prior) {
		return q
	}
	q.FollowUp = true
	q.Effective = BlendQuestion(prior.PreviousQuestion, q.Normalized, influence)
	return q
}

// BlendQuestion prepends the leading share of the previous question to the
// current one. influence is a percentage: 0 keeps current unchanged, 100
// prepends the whole previous question, and values between retain the
// first ceil(words*influence/100) words.
func BlendQuestion(previous, current string, influence int) string {
	words := strings.Fields(previous)
	if influence <= 0 || len(words) == 0 {
		return current
	}
	if influence > 100 {
		influence = 100
	}
	keep := (len(words)*influence + 99) / 100
	return strings.Join(append(words[:keep:keep], current), " ")
}

// Update returns the context to store after a turn. It stores the turn's
// own normalized question, never the blended one, so the next turn sees
// only the turn just completed.
func (m *ContextManager) Update(
	conversationID string, prior *domain.SessionContext, q domain.Question, hits []domain.Hit, now time.Time,
) *domain.SessionContext {
	turn := 1
	if prior != nil {
		turn = prior.Turn + 1
	}

	n := len(hits)
	if n > maxContextHits {
		n = maxContextHits
	}
	summaries := make([]domain.HitSummary, 0, n)
	for _, h := range hits[:n] {
		summaries = append(summaries, domain.HitSummary{BookID: h.BookID, Title: h.Title})
	}

	return &domain.SessionContext{
		ConversationID:   conversationID,
		PreviousQuestion: q.Normalized,
		PreviousHits:     summaries,
		Turn:             turn,
		UpdatedAt:        now,
	}
}
