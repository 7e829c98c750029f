package analyze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alias1177/stockgpt/models"
)

// Reply is the raw completion of one attempt
type Reply struct {
	Text         string
	FinishReason string
	BlockReason  string
	Grounding    *models.Grounding
}

// Generator issues exactly one generation call with search grounding enabled
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (*Reply, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, prompt Prompt) (*Reply, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt Prompt) (*Reply, error) {
	return f(ctx, prompt)
}

var errEmptyReply = errors.New("received empty response from AI")

type outcome struct {
	reply *Reply
	err   error
}

// invoke races one generation call against the deadline. On timeout the
// call's context is cancelled and its late result is dropped into a buffered
// channel nobody reads, so nothing carries over into the next attempt.
func invoke(ctx context.Context, gen Generator, prompt Prompt, timeout time.Duration) (*Reply, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		reply, err := gen.Generate(attemptCtx, prompt)
		done <- outcome{reply: reply, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, transportFailure(ctx, attemptCtx, out.err)
		}
		if out.reply == nil {
			return nil, Tag(CodeNoJSONFound, errEmptyReply)
		}
		if err := checkFinish(out.reply); err != nil {
			return nil, err
		}
		return out.reply, nil
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, Tag(contextCode(err), err)
		}
		return nil, Tag(CodeTimeout, fmt.Errorf("no reply within %s", timeout))
	}
}

// transportFailure prefers what the guard knows about the deadline over
// whatever the transport reported.
func transportFailure(parent, attempt context.Context, err error) error {
	if perr := parent.Err(); perr != nil {
		return Tag(contextCode(perr), err)
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return Tag(CodeTimeout, err)
	}
	return err
}

func contextCode(err error) Code {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeCanceled
}

// checkFinish rejects completions that stopped for any reason but a normal stop
func checkFinish(reply *Reply) error {
	if reply.BlockReason != "" && reply.Text == "" {
		return Tag(CodeSafetyRefusal, fmt.Errorf("prompt blocked: %s", reply.BlockReason))
	}

	switch reply.FinishReason {
	case "", "STOP", "FINISH_REASON_UNSPECIFIED":
		return nil
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST", "SPII", "IMAGE_SAFETY":
		return Tag(CodeSafetyRefusal, fmt.Errorf("finish reason: %s", reply.FinishReason))
	case "RECITATION":
		return Tag(CodeRecitationRefusal, fmt.Errorf("finish reason: %s", reply.FinishReason))
	default:
		return Tag(CodeModelRefusal, fmt.Errorf("finish reason: %s", reply.FinishReason))
	}
}
