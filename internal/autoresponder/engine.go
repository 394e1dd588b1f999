package autoresponder

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/config"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/repository"
)

// FallbackReply is returned whenever the external generation call fails or
// times out. It must always offer human escalation.
const FallbackReply = "I'm sorry, I'm having trouble coming up with an answer right now. " +
	"Would you like me to connect you with a human agent?"

// Engine produces automated replies: training-corpus matching first, one
// external generation call as fallback. It never returns an error to the
// caller; every failure path degrades to FallbackReply.
type Engine struct {
	llm      LLMClient
	training repository.TrainingRepository
	cfg      config.ResponderConfig
	logger   *zap.Logger

	corpusMu sync.RWMutex
	corpus   []domain.TrainingEntry

	historyMu sync.Mutex
	histories map[int64][]Turn
}

// NewEngine builds the engine. The corpus starts empty; call ReloadCorpus
// to populate it from the training repository.
func NewEngine(llm LLMClient, training repository.TrainingRepository, cfg config.ResponderConfig, logger *zap.Logger) *Engine {
	return &Engine{
		llm:       llm,
		training:  training,
		cfg:       cfg,
		logger:    logger,
		histories: make(map[int64][]Turn),
	}
}

// ReloadCorpus replaces the in-memory training corpus from storage.
func (e *Engine) ReloadCorpus(ctx context.Context) error {
	if e.training == nil {
		return nil
	}
	entries, err := e.training.List(ctx)
	if err != nil {
		return err
	}

	e.corpusMu.Lock()
	e.corpus = entries
	e.corpusMu.Unlock()

	e.logger.Info("training corpus loaded", zap.Int("entries", len(entries)))
	return nil
}

// SetCorpus replaces the corpus directly.
func (e *Engine) SetCorpus(entries []domain.TrainingEntry) {
	e.corpusMu.Lock()
	e.corpus = entries
	e.corpusMu.Unlock()
}

// Respond drafts a reply to the customer's message. The inbound message and
// the produced reply are both appended to the conversation's rolling
// history before returning.
func (e *Engine) Respond(ctx context.Context, conversationID int64, message, customerName string) string {
	e.appendTurn(conversationID, Turn{Role: "user", Content: message})

	if answer, ok := e.matchCorpus(message); ok {
		e.appendTurn(conversationID, Turn{Role: "assistant", Content: answer})
		return answer
	}

	genCtx, cancel := context.WithTimeout(ctx, e.cfg.GenerationTimeout())
	defer cancel()

	reply, err := e.llm.Generate(genCtx, BuildSystemPrompt(customerName), e.historySnapshot(conversationID))
	if err != nil || strings.TrimSpace(reply) == "" {
		e.logger.Warn("generation failed, using fallback",
			zap.Int64("conversation_id", conversationID),
			zap.Error(err))
		reply = FallbackReply
	}

	e.appendTurn(conversationID, Turn{Role: "assistant", Content: reply})
	return reply
}

// ClearHistory drops the rolling history for a conversation. The lifecycle
// controller calls this when the conversation closes.
func (e *Engine) ClearHistory(conversationID int64) {
	e.historyMu.Lock()
	delete(e.histories, conversationID)
	e.historyMu.Unlock()
}

// HistoryLen reports the current rolling history length for a conversation.
func (e *Engine) HistoryLen(conversationID int64) int {
	e.historyMu.Lock()
	defer e.historyMu.Unlock()
	return len(e.histories[conversationID])
}

// matchCorpus scores every training entry by keyword overlap with the
// message and returns the first entry clearing the threshold. A literal
// substring hit counts as a full match.
func (e *Engine) matchCorpus(message string) (string, bool) {
	e.corpusMu.RLock()
	defer e.corpusMu.RUnlock()

	normalized := normalize(message)
	msgTokens := tokenSet(normalized)

	bestScore := 0.0
	bestAnswer := ""
	for _, entry := range e.corpus {
		score := matchScore(normalized, msgTokens, normalize(entry.Trigger))
		// strict > keeps the first entry on ties
		if score > bestScore {
			bestScore = score
			bestAnswer = entry.Answer
		}
	}

	if bestScore >= e.cfg.MatchThreshold && bestAnswer != "" {
		return bestAnswer, true
	}
	return "", false
}

func matchScore(message string, msgTokens map[string]struct{}, trigger string) float64 {
	if trigger == "" {
		return 0
	}
	if strings.Contains(message, trigger) {
		return 1
	}

	triggerTokens := strings.Fields(trigger)
	if len(triggerTokens) == 0 {
		return 0
	}
	matched := 0
	for _, token := range triggerTokens {
		if _, ok := msgTokens[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(triggerTokens))
}

func (e *Engine) appendTurn(conversationID int64, turn Turn) {
	e.historyMu.Lock()
	defer e.historyMu.Unlock()

	history := append(e.histories[conversationID], turn)
	limit := e.cfg.HistoryLimit
	if limit <= 0 {
		limit = 10
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	e.histories[conversationID] = history
}

func (e *Engine) historySnapshot(conversationID int64) []Turn {
	e.historyMu.Lock()
	defer e.historyMu.Unlock()

	history := e.histories[conversationID]
	snapshot := make([]Turn, len(history))
	copy(snapshot, history)
	return snapshot
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}
