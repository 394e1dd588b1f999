package autoresponder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/config"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

type stubLLM struct {
	reply string
	err   error
	calls int
	// block until the context is cancelled
	hang bool
}

func (s *stubLLM) Generate(ctx context.Context, _ string, _ []Turn) (string, error) {
	s.calls++
	if s.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func testConfig() config.ResponderConfig {
	return config.ResponderConfig{
		Enabled:        true,
		TimeoutSeconds: 1,
		MatchThreshold: 0.5,
		HistoryLimit:   10,
	}
}

func newTestEngine(llm LLMClient, cfg config.ResponderConfig) *Engine {
	return NewEngine(llm, nil, cfg, zap.NewNop())
}

func TestRespondCorpusMatchSkipsGeneration(t *testing.T) {
	llm := &stubLLM{reply: "generated"}
	engine := newTestEngine(llm, testConfig())
	engine.SetCorpus([]domain.TrainingEntry{
		{Trigger: "refund policy", Answer: "Refunds take 5 business days."},
	})

	reply := engine.Respond(context.Background(), 1, "what is your refund policy?", "Ada")
	if reply != "Refunds take 5 business days." {
		t.Fatalf("expected corpus answer, got %q", reply)
	}
	if llm.calls != 0 {
		t.Fatalf("corpus hit must not call the llm, got %d calls", llm.calls)
	}
}

func TestRespondCorpusTieKeepsFirstEntry(t *testing.T) {
	engine := newTestEngine(&stubLLM{reply: "generated"}, testConfig())
	engine.SetCorpus([]domain.TrainingEntry{
		{Trigger: "shipping times", Answer: "first"},
		{Trigger: "shipping times", Answer: "second"},
	})

	reply := engine.Respond(context.Background(), 1, "shipping times please", "Ada")
	if reply != "first" {
		t.Fatalf("equal scores must keep the earlier entry, got %q", reply)
	}
}

func TestRespondBelowThresholdCallsGeneration(t *testing.T) {
	llm := &stubLLM{reply: "generated answer"}
	engine := newTestEngine(llm, testConfig())
	engine.SetCorpus([]domain.TrainingEntry{
		{Trigger: "completely different topic words here", Answer: "corpus"},
	})

	reply := engine.Respond(context.Background(), 1, "hello", "Ada")
	if reply != "generated answer" {
		t.Fatalf("expected generated reply, got %q", reply)
	}
	if llm.calls != 1 {
		t.Fatalf("expected one generation call, got %d", llm.calls)
	}
}

func TestRespondFallbackOnError(t *testing.T) {
	engine := newTestEngine(&stubLLM{err: errors.New("upstream down")}, testConfig())

	reply := engine.Respond(context.Background(), 1, "hello", "Ada")
	if reply != FallbackReply {
		t.Fatalf("expected fallback, got %q", reply)
	}
	if !strings.Contains(reply, "human agent") {
		t.Fatalf("fallback must offer human escalation, got %q", reply)
	}
}

func TestRespondFallbackOnEmptyReply(t *testing.T) {
	engine := newTestEngine(&stubLLM{reply: "   "}, testConfig())

	if reply := engine.Respond(context.Background(), 1, "hello", "Ada"); reply != FallbackReply {
		t.Fatalf("blank generation must fall back, got %q", reply)
	}
}

func TestRespondHangingGenerationTimesOut(t *testing.T) {
	engine := newTestEngine(&stubLLM{hang: true}, testConfig())

	done := make(chan string, 1)
	go func() {
		done <- engine.Respond(context.Background(), 1, "hello", "Ada")
	}()

	select {
	case reply := <-done:
		if reply != FallbackReply {
			t.Fatalf("timed-out generation must fall back, got %q", reply)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Respond did not return after generation timeout")
	}
}

func TestHistoryBoundAndIsolation(t *testing.T) {
	cfg := testConfig()
	cfg.HistoryLimit = 4
	engine := newTestEngine(&stubLLM{reply: "ok"}, cfg)

	for i := 0; i < 10; i++ {
		engine.Respond(context.Background(), 1, "message", "Ada")
	}
	if n := engine.HistoryLen(1); n != 4 {
		t.Fatalf("history must cap at %d, got %d", cfg.HistoryLimit, n)
	}
	if n := engine.HistoryLen(2); n != 0 {
		t.Fatalf("histories must be per conversation, got %d for untouched id", n)
	}
}

func TestClearHistory(t *testing.T) {
	engine := newTestEngine(&stubLLM{reply: "ok"}, testConfig())

	engine.Respond(context.Background(), 7, "hello", "Ada")
	if engine.HistoryLen(7) == 0 {
		t.Fatal("expected history after respond")
	}
	engine.ClearHistory(7)
	if n := engine.HistoryLen(7); n != 0 {
		t.Fatalf("expected empty history after clear, got %d", n)
	}
}

func TestMatchScoreSubstring(t *testing.T) {
	msg := normalize("Can I get a REFUND, please?")
	if got := matchScore(msg, tokenSet(msg), normalize("refund")); got != 1 {
		t.Fatalf("substring hit must score 1, got %v", got)
	}
}

func TestMatchScorePartialOverlap(t *testing.T) {
	msg := normalize("how do refunds work")
	got := matchScore(msg, tokenSet(msg), normalize("work order"))
	if got != 0.5 {
		t.Fatalf("one of two trigger tokens must score 0.5, got %v", got)
	}
}
