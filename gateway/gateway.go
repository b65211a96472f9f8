// Package gateway provides an HTTP server that accepts chat-completion
// requests and translates them to and from the backend's length-prefixed
// protobuf protocol.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/wireline/gateway/header"
	"github.com/papercomputeco/wireline/gateway/worker"
	"github.com/papercomputeco/wireline/pkg/eventstream"
	"github.com/papercomputeco/wireline/pkg/llm"
	"github.com/papercomputeco/wireline/pkg/llm/openai"
	"github.com/papercomputeco/wireline/pkg/sse"
	"github.com/papercomputeco/wireline/pkg/storage"
	"github.com/papercomputeco/wireline/pkg/transform"
	"github.com/papercomputeco/wireline/pkg/upstream"
	"github.com/papercomputeco/wireline/pkg/utils"
)

const completionsPath = "/v1/chat/completions"

// Gateway is the protocol-translation server. Callers speak the
// chat-completion dialect; the backend leg speaks framed protobuf. Exchange
// records are persisted asynchronously via the worker pool.
type Gateway struct {
	config        Config
	driver        storage.Driver
	workerPool    *worker.Pool
	logger        *zap.Logger
	httpClient    *http.Client
	server        *fiber.App
	headerHandler *header.Handler
}

// New creates a new Gateway.
// The driver is injected to handle async persistence of exchange records; the
// publisher may be nil to disable event publishing.
func New(config Config, driver storage.Driver, publisher eventstream.Publisher, logger *zap.Logger) (*Gateway, error) {
	if config.UpstreamURL == "" {
		return nil, errors.New("upstream URL is required")
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	// Add compression middleware to handle responses
	app.Use(compress.New())

	wp, err := worker.NewPool(&worker.Config{
		Driver:      driver,
		Publisher:   publisher,
		GatewayName: config.GatewayName,
		UpstreamURL: config.UpstreamURL,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		config:        config,
		driver:        driver,
		workerPool:    wp,
		logger:        logger,
		server:        app,
		headerHandler: header.NewHandler(),
		httpClient: &http.Client{
			// LLM requests can be slow, especially with thinking blocks
			Timeout: 5 * time.Minute,
		},
	}

	app.Post(completionsPath, g.handleChatCompletions)
	app.Get("/healthz", g.handleHealthz)
	app.Get("/v1/exchanges", g.handleListExchanges)
	app.Get("/v1/exchanges/:id", g.handleGetExchange)

	return g, nil
}

// Run starts the gateway server on the configured listening address
func (g *Gateway) Run() error {
	g.logger.Info("starting gateway server",
		zap.String("listen", g.config.ListenAddr),
		zap.String("upstream", g.config.UpstreamURL),
	)

	return g.server.Listen(g.config.ListenAddr)
}

// RunWithListener starts the gateway server using the provided listener.
func (g *Gateway) RunWithListener(listener net.Listener) error {
	g.logger.Info("starting gateway server",
		zap.String("listen", listener.Addr().String()),
		zap.String("upstream", g.config.UpstreamURL),
	)

	return g.server.Listener(listener)
}

// Close gracefully shuts down the gateway and waits for the worker pool to drain
func (g *Gateway) Close() error {
	err := g.server.Shutdown()
	g.workerPool.Close()
	return err
}

func (g *Gateway) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (g *Gateway) handleListExchanges(c *fiber.Ctx) error {
	exchanges, err := g.driver.List(c.Context())
	if err != nil {
		g.logger.Error("failed to list exchanges", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody("api_error", "failed to list exchanges"))
	}
	return c.JSON(exchanges)
}

func (g *Gateway) handleGetExchange(c *fiber.Ctx) error {
	ex, err := g.driver.Get(c.Context(), c.Params("id"))
	if err != nil {
		var notFound storage.ErrNotFound
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(errorBody("not_found_error", err.Error()))
		}
		g.logger.Error("failed to get exchange", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody("api_error", "failed to get exchange"))
	}
	return c.JSON(ex)
}

// handleChatCompletions parses the caller's completion request, builds the
// framed backend request, and dispatches on the stream flag.
func (g *Gateway) handleChatCompletions(c *fiber.Ctx) error {
	startTime := time.Now()

	parsedReq, err := openai.ParseRequest(c.Body())
	if err != nil {
		g.logger.Warn("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(errorBody("invalid_request_error", err.Error()))
	}

	g.logger.Debug("parsed request",
		zap.String("model", parsedReq.Model),
		zap.Int("message_count", len(parsedReq.Messages)),
		zap.Int("tool_count", len(parsedReq.Tools)),
		zap.String("prompt_preview", utils.Truncate(lastUserText(parsedReq), 80)),
	)

	var payload []byte
	if g.config.Compress {
		payload = upstream.BuildRequestCompressed(parsedReq)
	} else {
		payload = upstream.BuildRequest(parsedReq)
	}

	streaming := parsedReq.Stream != nil && *parsedReq.Stream
	if streaming {
		return g.handleStreaming(c, parsedReq, payload, startTime)
	}

	return g.handleBuffered(c, parsedReq, payload, startTime)
}

// handleBuffered proxies one request-response round trip: the whole backend
// body is read, transformed, and answered as a single completion object.
func (g *Gateway) handleBuffered(c *fiber.Ctx, parsedReq *llm.ChatRequest, payload []byte, startTime time.Time) error {
	httpReq, err := http.NewRequestWithContext(c.Context(), http.MethodPost, g.config.UpstreamURL, bytes.NewReader(payload))
	if err != nil {
		g.logger.Error("failed to create upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody("api_error", "internal error"))
	}

	g.headerHandler.SetUpstreamRequestHeaders(c, httpReq)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		g.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorBody("api_error", "upstream request failed"))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		g.logger.Error("failed to read upstream response", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorBody("api_error", "failed to read upstream response"))
	}

	g.headerHandler.SetClientResponseHeaders(c, httpResp)

	outcome := transform.Completion(respBody, parsedReq.Model)
	if httpResp.StatusCode != http.StatusOK && outcome.Status == http.StatusOK {
		// Upstream failed without a structured error frame in the body.
		g.logger.Error("upstream returned error",
			zap.Int("status", httpResp.StatusCode),
		)
		outcome = transform.Outcome{
			Status: httpResp.StatusCode,
			Body:   errorBody("api_error", "upstream error"),
		}
	}

	g.logger.Debug("received response from upstream",
		zap.String("model", parsedReq.Model),
		zap.Int("status", outcome.Status),
		zap.Duration("duration", time.Since(startTime)),
	)

	g.enqueueExchange(parsedReq, outcome, false, false, startTime)

	return c.Status(outcome.Status).JSON(outcome.Body)
}

// handleStreaming proxies a streaming round trip: backend frames are decoded
// incrementally and re-emitted to the caller as SSE completion chunks.
func (g *Gateway) handleStreaming(c *fiber.Ctx, parsedReq *llm.ChatRequest, payload []byte, startTime time.Time) error {
	// Use context.Background() instead of c.Context() because fasthttp recycles
	// its RequestCtx after the handler returns, but the streaming goroutine
	// needs the upstream connection to remain open.
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, g.config.UpstreamURL, bytes.NewReader(payload))
	if err != nil {
		g.logger.Error("failed to create upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody("api_error", "internal error"))
	}

	g.headerHandler.SetUpstreamRequestHeaders(c, httpReq)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		g.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorBody("api_error", "upstream request failed"))
	}
	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()

		outcome := transform.Completion(respBody, parsedReq.Model)
		if outcome.Status == http.StatusOK {
			outcome = transform.Outcome{
				Status: httpResp.StatusCode,
				Body:   errorBody("api_error", "upstream error"),
			}
		}
		g.logger.Error("upstream returned error",
			zap.Int("status", httpResp.StatusCode),
		)
		return c.Status(outcome.Status).JSON(outcome.Body)
	}

	// Read ahead to the first decoded event batch before committing the SSE
	// response. Once SetBodyStream runs the status is fixed at 200, but a
	// backend that opens the stream with a structured error should still get
	// a plain JSON error response with the mapped status.
	parser := upstream.NewStreamParser()
	var pending []upstream.Event
	preBuf := make([]byte, 32*1024)
	for len(pending) == 0 {
		n, readErr := httpResp.Body.Read(preBuf)
		if n > 0 {
			pending = parser.Push(preBuf[:n])
		}
		if readErr != nil {
			break
		}
	}

	if len(pending) > 0 && pending[0].Kind == upstream.EventError {
		httpResp.Body.Close()

		outcome := transform.ErrorOutcome(pending[0].Err)
		g.logger.Warn("backend opened stream with an error",
			zap.Int("status", outcome.Status),
		)
		g.enqueueExchange(parsedReq, outcome, true, parser.HasPartial(), startTime)
		return c.Status(outcome.Status).JSON(outcome.Body)
	}

	g.headerHandler.SetClientResponseHeaders(c, httpResp)
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")

	// Use io.Pipe + SetBodyStream so pw.Write blocks until fasthttp's
	// writeBodyChunked consumes the data and flushes to the TCP socket. This
	// gives direct backpressure and true per-chunk streaming instead of
	// buffering all chunks in memory first.
	pr, pw := io.Pipe()
	go g.pumpStream(httpResp, pw, parsedReq, startTime, parser, pending)

	// Unknown size (-1) triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// pumpStream reads backend frames off the response body, translates them to
// completion chunks, and writes them as SSE events until the backend closes
// the stream or emits a structured error. The events pre-read by
// handleStreaming are emitted first, then the parser continues off the body.
// The exchange is recorded on every exit path, including client disconnects.
func (g *Gateway) pumpStream(httpResp *http.Response, pw *io.PipeWriter, parsedReq *llm.ChatRequest, startTime time.Time, parser *upstream.StreamParser, pending []upstream.Event) {
	defer httpResp.Body.Close()
	defer pw.Close()

	emitter := transform.NewStreamEmitter(parsedReq.Model)
	w := sse.NewWriter(pw)

	status := http.StatusOK
	finishReason := ""
	completionChars := 0
	errored := false
	writeFailed := false

	events := pending
	buf := make([]byte, 32*1024)
	var readErr error
read:
	for {
		for _, ev := range events {
			if ev.Kind == upstream.EventError {
				outcome := transform.ErrorOutcome(ev.Err)
				status = outcome.Status
				errored = true
				if err := w.WriteEvent(outcome.Body); err != nil {
					g.logger.Error("error writing error event to pipe", zap.Error(err))
					writeFailed = true
				}
				break read
			}

			if ev.Kind == upstream.EventText {
				completionChars += len(ev.Text)
			}
			chunk := emitter.Chunk(ev)
			if chunk == nil {
				continue
			}
			if err := w.WriteEvent(chunk); err != nil {
				g.logger.Error("error writing chunk to pipe", zap.Error(err))
				writeFailed = true
				break read
			}
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				g.logger.Error("error reading upstream stream", zap.Error(readErr))
			}
			break
		}

		var n int
		n, readErr = httpResp.Body.Read(buf)
		if n > 0 {
			events = parser.Push(buf[:n])
		} else {
			events = nil
		}
	}

	if !errored && !writeFailed {
		final := emitter.Final()
		if final.Choices[0].FinishReason != nil {
			finishReason = *final.Choices[0].FinishReason
		}
		if err := w.WriteEvent(final); err != nil {
			g.logger.Error("error writing final chunk to pipe", zap.Error(err))
			writeFailed = true
		}
	}

	if !writeFailed {
		if err := w.WriteDone(); err != nil {
			g.logger.Error("error writing done marker to pipe", zap.Error(err))
		}
	}

	// A dangling carry buffer means the backend cut off mid-frame; a failed
	// pipe write means the caller went away before the stream finished.
	// Either way the caller did not see a complete response.
	truncated := parser.HasPartial() || writeFailed
	if parser.HasPartial() {
		g.logger.Warn("stream ended with a partial frame buffered",
			zap.String("model", parsedReq.Model),
		)
	}

	g.logger.Debug("streaming complete",
		zap.Int("completion_chars", completionChars),
		zap.Duration("duration", time.Since(startTime)),
	)

	ex := newExchange(parsedReq, status, finishReason, true, truncated, startTime)
	ex.CompletionChars = completionChars
	g.workerPool.Enqueue(worker.Job{
		Exchange:    ex,
		Path:        completionsPath,
		StartedAt:   startTime,
		CompletedAt: time.Now().UTC(),
	})
}

// enqueueExchange records an exchange answered with a single JSON body.
func (g *Gateway) enqueueExchange(parsedReq *llm.ChatRequest, outcome transform.Outcome, streaming, truncated bool, startTime time.Time) {
	finishReason := ""
	completionChars := 0
	if resp, ok := outcome.Body.(transform.CompletionResponse); ok && len(resp.Choices) > 0 {
		finishReason = resp.Choices[0].FinishReason
		completionChars = len(resp.Choices[0].Message.Content)
	}

	ex := newExchange(parsedReq, outcome.Status, finishReason, streaming, truncated, startTime)
	ex.CompletionChars = completionChars

	g.workerPool.Enqueue(worker.Job{
		Exchange:    ex,
		Path:        completionsPath,
		StartedAt:   startTime,
		CompletedAt: time.Now().UTC(),
	})
}

// newExchange builds the persistent record for one round trip.
func newExchange(parsedReq *llm.ChatRequest, status int, finishReason string, streaming, truncated bool, startTime time.Time) *storage.Exchange {
	return &storage.Exchange{
		ID:           uuid.NewString(),
		Model:        parsedReq.Model,
		Status:       status,
		FinishReason: finishReason,
		PromptChars:  promptChars(parsedReq),
		Streaming:    streaming,
		Truncated:    truncated,
		DurationMs:   time.Since(startTime).Milliseconds(),
		CreatedAt:    startTime.UTC(),
	}
}

// lastUserText returns the text of the most recent user message, for logging.
func lastUserText(req *llm.ChatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].GetText()
		}
	}
	return ""
}

// promptChars sums the text content across all prompt messages.
func promptChars(req *llm.ChatRequest) int {
	total := len(req.System)
	for _, msg := range req.Messages {
		total += len(msg.GetText())
	}
	return total
}

func errorBody(errType, message string) transform.ErrorResponse {
	return transform.ErrorResponse{
		Error: transform.ErrorBody{
			Type:    errType,
			Message: message,
		},
	}
}
