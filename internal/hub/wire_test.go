package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

func TestDecodeInboundAgentAuth(t *testing.T) {
	frame, err := DecodeInbound([]byte(`{"type":"agent_auth","email":"a@b.c","password":"pw"}`))
	if err != nil {
		t.Fatalf("DecodeInbound failed: %v", err)
	}
	auth, ok := frame.(AgentAuthFrame)
	if !ok {
		t.Fatalf("expected AgentAuthFrame, got %T", frame)
	}
	if auth.Email != "a@b.c" || auth.Password != "pw" {
		t.Fatalf("unexpected frame: %+v", auth)
	}
}

func TestDecodeInboundCustomerInit(t *testing.T) {
	frame, err := DecodeInbound([]byte(`{"type":"customer_init","name":"Ada","email":"ada@example.com","widgetToken":"tok"}`))
	if err != nil {
		t.Fatalf("DecodeInbound failed: %v", err)
	}
	init, ok := frame.(CustomerInitFrame)
	if !ok {
		t.Fatalf("expected CustomerInitFrame, got %T", frame)
	}
	if init.Name != "Ada" || init.WidgetToken != "tok" {
		t.Fatalf("unexpected frame: %+v", init)
	}
}

func TestDecodeInboundChatMessage(t *testing.T) {
	frame, err := DecodeInbound([]byte(`{"type":"chat_message","conversationId":7,"content":"hello"}`))
	if err != nil {
		t.Fatalf("DecodeInbound failed: %v", err)
	}
	chat, ok := frame.(ChatMessageFrame)
	if !ok {
		t.Fatalf("expected ChatMessageFrame, got %T", frame)
	}
	if chat.ConversationID != 7 || chat.Content != "hello" {
		t.Fatalf("unexpected frame: %+v", chat)
	}
}

func TestDecodeInboundTyping(t *testing.T) {
	frame, err := DecodeInbound([]byte(`{"type":"typing","conversationId":7,"isTyping":true}`))
	if err != nil {
		t.Fatalf("DecodeInbound failed: %v", err)
	}
	typing, ok := frame.(TypingFrame)
	if !ok {
		t.Fatalf("expected TypingFrame, got %T", frame)
	}
	if !typing.IsTyping {
		t.Fatalf("unexpected frame: %+v", typing)
	}
}

func TestDecodeInboundRejects(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"missing type", `{"content":"hi"}`},
		{"unknown type", `{"type":"warp_drive"}`},
	}
	for _, tc := range cases {
		if _, err := DecodeInbound([]byte(tc.data)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestNewMessageView(t *testing.T) {
	agentID := int64(5)
	view := NewMessageView(domain.Message{
		ID:             3,
		ConversationID: 7,
		Sender:         domain.Sender{Role: domain.SenderRoleAgent, ID: &agentID},
		Content:        "on it",
		CreatedAt:      time.Unix(1000, 0),
	})
	if view.SenderType != "agent" || view.SenderID == nil || *view.SenderID != 5 {
		t.Fatalf("unexpected view: %+v", view)
	}

	automated := NewMessageView(domain.Message{Sender: domain.AutomatedSender()})
	if automated.SenderID != nil {
		t.Fatal("automated messages carry no sender id")
	}

	payload, err := json.Marshal(automated)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(payload) == "" {
		t.Fatal("expected payload")
	}
}
