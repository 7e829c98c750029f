package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		symbol  string
		code    Code
		isEmpty bool
	}{
		{name: "bare", text: `{"symbol":"AAPL"}`, symbol: "AAPL"},
		{name: "fenced", text: "```json\n{\"symbol\":\"MSFT\"}\n```", symbol: "MSFT"},
		{name: "upper fence", text: "```JSON\n{\"symbol\":\"IBM\"}```", symbol: "IBM"},
		{name: "plain fence", text: "```\n{\"symbol\":\"SAP\"}\n```", symbol: "SAP"},
		{name: "prose around", text: "Sure! {\"symbol\":\"TSLA\", \"x\": {\"y\": 1}} Hope this helps.", symbol: "TSLA"},
		{name: "braces in strings", text: `{"symbol":"NVDA","summary":"a {b} c"}`, symbol: "NVDA"},
		{name: "empty", text: "", code: CodeNoJSONFound, isEmpty: true},
		{name: "only fences", text: "```json\n```", code: CodeNoJSONFound, isEmpty: true},
		{name: "no braces", text: "I cannot help with that.", code: CodeNoJSONFound},
		{name: "reversed braces", text: "} nothing {", code: CodeNoJSONFound},
		{name: "truncated", text: `{"symbol":"AAPL","summary":"cut}`, code: CodeParseError},
		{name: "two objects", text: `{"symbol":"A"} {"symbol":"B"}`, code: CodeParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := extract(tt.text)
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, Classify(err))
				assert.Equal(t, tt.isEmpty, errors.Is(err, errEmptyReply))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, tree["symbol"])
		})
	}
}

func TestCheckFinish(t *testing.T) {
	tests := []struct {
		reply Reply
		code  Code
	}{
		{reply: Reply{Text: "{}", FinishReason: "STOP"}},
		{reply: Reply{Text: "{}"}},
		{reply: Reply{Text: "{}", FinishReason: "FINISH_REASON_UNSPECIFIED"}},
		{reply: Reply{Text: "{}", FinishReason: "SAFETY"}, code: CodeSafetyRefusal},
		{reply: Reply{FinishReason: "PROHIBITED_CONTENT"}, code: CodeSafetyRefusal},
		{reply: Reply{FinishReason: "BLOCKLIST"}, code: CodeSafetyRefusal},
		{reply: Reply{FinishReason: "SPII"}, code: CodeSafetyRefusal},
		{reply: Reply{FinishReason: "RECITATION"}, code: CodeRecitationRefusal},
		{reply: Reply{Text: "{", FinishReason: "MAX_TOKENS"}, code: CodeModelRefusal},
		{reply: Reply{FinishReason: "MALFORMED_FUNCTION_CALL"}, code: CodeModelRefusal},
		{reply: Reply{BlockReason: "OTHER"}, code: CodeSafetyRefusal},
		{reply: Reply{Text: "{}", BlockReason: "OTHER", FinishReason: "STOP"}},
	}

	for _, tt := range tests {
		err := checkFinish(&tt.reply)
		if tt.code == "" {
			assert.NoError(t, err, "%+v", tt.reply)
			continue
		}
		assert.Equal(t, tt.code, Classify(err), "%+v", tt.reply)
	}
}

func TestInvokeDropsLateReply(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	gen := GeneratorFunc(func(ctx context.Context, _ Prompt) (*Reply, error) {
		defer close(finished)
		<-release
		return &Reply{Text: `{"symbol":"LATE"}`}, nil
	})

	_, err := invoke(context.Background(), gen, Prompt{}, 10*time.Millisecond)
	assert.Equal(t, CodeTimeout, Classify(err))

	// the straggler must be able to finish without a reader
	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("generator goroutine blocked after timeout")
	}
}

func TestInvokeNilReply(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, Prompt) (*Reply, error) { return nil, nil })

	_, err := invoke(context.Background(), gen, Prompt{}, time.Second)
	assert.Equal(t, CodeNoJSONFound, Classify(err))
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("RELIANCE.NS")

	assert.Equal(t, "RELIANCE.NS", p.UserContent)
	assert.Contains(t, p.SystemInstruction, `"RELIANCE.NS"`)
	assert.Contains(t, p.SystemInstruction, "googleSearch")
	assert.Contains(t, p.SystemInstruction, `".NS" suffix`)
	assert.Contains(t, p.SystemInstruction, `"forecasts"`)
	assert.True(t, strings.HasPrefix(p.SystemInstruction, "You are StockGPT"))
	assert.Equal(t, p, BuildPrompt("RELIANCE.NS"))
}
