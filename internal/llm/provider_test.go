package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeChatModel struct {
	reply      *schema.Message
	err        error
	boundTools []*schema.ToolInfo
	calls      int
}

func (m *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func (m *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (m *fakeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.boundTools = tools
	return m, nil
}

func TestComplete(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("HOLD with confidence 0.6", nil)}
	p := &ChatModelProvider{model: fake}

	got, err := p.Complete(context.Background(), []*schema.Message{schema.UserMessage("assess AAPL")})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "HOLD with confidence 0.6" {
		t.Fatalf("unexpected answer %q", got)
	}
	if fake.calls != 1 {
		t.Fatalf("expected one generate call, got %d", fake.calls)
	}
}

func TestCompleteWithTools(t *testing.T) {
	reply := &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "call-1", Function: schema.FunctionCall{Name: "submit_report", Arguments: `{"rating":"BUY"}`}},
		},
	}
	fake := &fakeChatModel{reply: reply}
	p := &ChatModelProvider{model: fake}

	tools := []*schema.ToolInfo{{Name: "submit_report", Desc: "submit the analyst report"}}
	msg, err := p.CompleteWithTools(context.Background(), []*schema.Message{schema.UserMessage("assess AAPL")}, tools)
	if err != nil {
		t.Fatalf("CompleteWithTools: %v", err)
	}
	if len(fake.boundTools) != 1 || fake.boundTools[0].Name != "submit_report" {
		t.Fatalf("expected the tool to be bound before generating, got %+v", fake.boundTools)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].Function.Name != "submit_report" {
		t.Fatalf("expected the raw tool call to pass through, got %+v", msg.ToolCalls)
	}
}

func TestCompleteWithToolsGenerateError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("backend unreachable")}
	p := &ChatModelProvider{model: fake}

	if _, err := p.CompleteWithTools(context.Background(), nil, nil); err == nil {
		t.Fatal("expected the generate failure to propagate")
	}
}

func TestCompleteStructured(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("```json\n{\"best_pick\": \"AAPL\"}\n```", nil)}
	p := &ChatModelProvider{model: fake}

	var out struct {
		BestPick string `json:"best_pick"`
	}
	if err := p.CompleteStructured(context.Background(), []*schema.Message{schema.UserMessage("rank them")}, &out); err != nil {
		t.Fatalf("CompleteStructured: %v", err)
	}
	if out.BestPick != "AAPL" {
		t.Fatalf("expected AAPL, got %q", out.BestPick)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"raw object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n[1, 2]\n```", `[1, 2]`},
		{"surrounding prose", `Here is the result: {"a": 1} hope that helps`, `{"a": 1}`},
		{"no json at all", "sorry, I cannot answer", "sorry, I cannot answer"},
	}
	for _, tc := range cases {
		if got := ExtractJSON(tc.in); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
