package gemini

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"google.golang.org/genai"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/common/helper"
	"github.com/fuchsia74/gemini-pool/common/render"
	"github.com/fuchsia74/gemini-pool/relay/meta"
	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
)

const (
	dataPrefix       = "data: "
	dataPrefixLength = len(dataPrefix)
)

// choiceStreamState tracks one choice index across the lifetime of a stream.
// A choice must emit exactly one role prelude before any delta, and exactly
// one finish reason before the stream ends.
type choiceStreamState struct {
	preludeSent bool
	finished    bool
}

// streamEmitter owns the shared envelope fields of every chunk in one stream:
// all chunks of a response carry the same id, created timestamp, and model.
type streamEmitter struct {
	c         *gin.Context
	id        string
	created   int64
	model     string
	usageSent bool
	states    map[int]*choiceStreamState
}

func newStreamEmitter(c *gin.Context, modelName string) *streamEmitter {
	return &streamEmitter{
		c:       c,
		id:      newChatCompletionID(),
		created: helper.GetTimestamp(),
		model:   modelName,
		states:  map[int]*choiceStreamState{},
	}
}

func (e *streamEmitter) state(index int) *choiceStreamState {
	s, ok := e.states[index]
	if !ok {
		s = &choiceStreamState{}
		e.states[index] = s
	}
	return s
}

func (e *streamEmitter) chunk(choices []relaymodel.ChatCompletionsStreamResponseChoice, usage *relaymodel.Usage) *relaymodel.ChatCompletionsStreamResponse {
	return &relaymodel.ChatCompletionsStreamResponse{
		Id:      e.id,
		Object:  "chat.completion.chunk",
		Created: e.created,
		Model:   e.model,
		Choices: choices,
		Usage:   usage,
	}
}

// prelude emits the role-only chunk for a choice the first time that choice
// appears in the stream.
func (e *streamEmitter) prelude(index int) error {
	s := e.state(index)
	if s.preludeSent {
		return nil
	}
	s.preludeSent = true
	return render.ObjectData(e.c, e.chunk([]relaymodel.ChatCompletionsStreamResponseChoice{{
		Index: index,
		Delta: relaymodel.DeltaMessage{Role: "assistant"},
	}}, nil))
}

// delta emits one content chunk for a choice, optionally carrying its finish
// reason and the stream usage. The prelude is guaranteed to precede it.
func (e *streamEmitter) delta(index int, delta relaymodel.DeltaMessage, finishReason *string, usage *relaymodel.Usage) error {
	if err := e.prelude(index); err != nil {
		return err
	}
	s := e.state(index)
	if finishReason != nil {
		s.finished = true
	}
	if usage != nil {
		e.usageSent = true
	}
	return render.ObjectData(e.c, e.chunk([]relaymodel.ChatCompletionsStreamResponseChoice{{
		Index:        index,
		Delta:        delta,
		FinishReason: finishReason,
	}}, usage))
}

// contentFilter emits the single synthetic chunk for a blocked prompt. The
// choice opens and closes in this one frame; no role prelude precedes it.
func (e *streamEmitter) contentFilter(index int, usage *relaymodel.Usage) error {
	s := e.state(index)
	if s.finished {
		return nil
	}
	s.preludeSent = true
	s.finished = true
	if usage != nil {
		e.usageSent = true
	}
	reason := "content_filter"
	return render.ObjectData(e.c, e.chunk([]relaymodel.ChatCompletionsStreamResponseChoice{{
		Index:        index,
		Delta:        relaymodel.DeltaMessage{},
		FinishReason: &reason,
	}}, usage))
}

// finishOpen closes every choice that saw a prelude but never received a
// finish reason from upstream. Upstream streams that end abruptly still
// produce well-formed output this way.
func (e *streamEmitter) finishOpen() error {
	reason := "stop"
	for index, s := range e.states {
		if !s.preludeSent || s.finished {
			continue
		}
		if err := e.delta(index, relaymodel.DeltaMessage{}, &reason, nil); err != nil {
			return err
		}
	}
	return nil
}

// usageChunk emits the trailing usage frame with an empty choices array.
func (e *streamEmitter) usageChunk(usage *relaymodel.Usage) error {
	return render.ObjectData(e.c, e.chunk([]relaymodel.ChatCompletionsStreamResponseChoice{}, usage))
}

// candidateDelta translates one streamed candidate into a delta message. Tool
// call deltas get fresh ids and slot indexes, matching the non-streaming
// translation.
func candidateDelta(candidate *genai.Candidate) (relaymodel.DeltaMessage, bool) {
	var textBuilder strings.Builder
	var toolCalls []relaymodel.Tool
	hasText := false
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" {
				hasText = true
				textBuilder.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				slot := len(toolCalls)
				toolCalls = append(toolCalls, relaymodel.Tool{
					Id:    newToolCallID(),
					Type:  "function",
					Index: &slot,
					Function: relaymodel.Function{
						Name:      part.FunctionCall.Name,
						Arguments: relaymodel.MarshalArguments(part.FunctionCall.Args),
					},
				})
			}
		}
	}

	delta := relaymodel.DeltaMessage{ToolCalls: toolCalls}
	if hasText {
		delta.Content = textBuilder.String()
	}
	return delta, hasText || len(toolCalls) > 0
}

// StreamHandler consumes the upstream SSE stream and re-emits it in the
// alternate chat completion chunk format. Usage rides on the chunk that
// closes a choice when upstream delivered both together; otherwise a trailing
// usage frame precedes the [DONE] terminator.
func StreamHandler(c *gin.Context, resp *http.Response, m *meta.Meta) (*relaymodel.ErrorWithStatusCode, *relaymodel.Usage) {
	defer resp.Body.Close()
	lg := gmw.GetLogger(c).With(zap.String("model", m.ModelName))

	scanner := bufio.NewScanner(resp.Body)
	buffer := make([]byte, 1024*1024)
	scanner.Buffer(buffer, len(buffer))
	scanner.Split(bufio.ScanLines)

	common.SetEventStreamHeaders(c)

	emitter := newStreamEmitter(c, m.ModelName)
	var usage relaymodel.Usage

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(line) < dataPrefixLength || line[:dataPrefixLength] != dataPrefix {
			continue
		}
		payload := line[dataPrefixLength:]

		var chunk ChatResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			lg.Warn("skip malformed stream chunk", zap.Error(err))
			continue
		}

		chunkHasUsage := chunk.UsageMetadata != nil
		if chunkHasUsage {
			usage = usageMetadataToUsage(chunk.UsageMetadata)
		}

		if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" {
			// a blocked prompt produces no candidates; surface it as a
			// single content-filtered first choice
			var attach *relaymodel.Usage
			if chunkHasUsage {
				attach = &usage
			}
			if err := emitter.contentFilter(0, attach); err != nil {
				lg.Warn("render blocked prompt chunk failed", zap.Error(err))
			}
			continue
		}

		for _, candidate := range chunk.Candidates {
			if candidate == nil {
				continue
			}
			index := int(candidate.Index)
			delta, hasDelta := candidateDelta(candidate)

			var finishReason *string
			if candidate.FinishReason != "" {
				reason := mapFinishReason(candidate.FinishReason, len(delta.ToolCalls) > 0)
				finishReason = &reason
			}

			if emitter.state(index).finished {
				continue
			}
			if !hasDelta && finishReason == nil {
				// still emit the prelude so an all-empty stream produces a
				// well-formed choice
				if err := emitter.prelude(index); err != nil {
					lg.Warn("render stream prelude failed", zap.Error(err))
				}
				continue
			}
			// usage delivered alongside a terminal finish reason rides on
			// that same chunk
			var attach *relaymodel.Usage
			if finishReason != nil && chunkHasUsage && !emitter.usageSent {
				attach = &usage
			}
			if err := emitter.delta(index, delta, finishReason, attach); err != nil {
				lg.Warn("render stream chunk failed", zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		lg.Warn("upstream stream read error", zap.Error(err))
	}

	if err := emitter.finishOpen(); err != nil {
		lg.Warn("render stream flush failed", zap.Error(err))
	}
	if !emitter.usageSent {
		if err := emitter.usageChunk(&usage); err != nil {
			lg.Warn("render usage chunk failed", zap.Error(err))
		}
	}
	render.Done(c)

	return nil, &usage
}

// NativeStreamHandler relays the upstream SSE stream verbatim. Native clients
// expect the provider's own framing, so frames pass through untouched and no
// terminator is appended.
func NativeStreamHandler(c *gin.Context, resp *http.Response) *relaymodel.ErrorWithStatusCode {
	defer resp.Body.Close()
	lg := gmw.GetLogger(c)

	scanner := bufio.NewScanner(resp.Body)
	buffer := make([]byte, 1024*1024)
	scanner.Buffer(buffer, len(buffer))
	scanner.Split(bufio.ScanLines)

	common.SetEventStreamHeaders(c)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(line) < dataPrefixLength || line[:dataPrefixLength] != dataPrefix {
			continue
		}
		render.StringData(c, line)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		lg.Warn("upstream stream read error", zap.Error(err))
	}
	return nil
}
