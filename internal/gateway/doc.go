// Package gateway orchestrates the finsight-gateway server components.
//
// # Overview
//
// The gateway package is the central coordinator of the finsight-gateway
// server. It owns and manages the HTTP server, the conversation service,
// the session store, and the market data client.
//
// # HTTP API
//
// The gateway exposes HTTP endpoints in api.go:
//
//   - GET  /v1/health - Liveness check with version and timestamp
//   - POST /v1/chat - Execute one chat turn (complete JSON response)
//   - POST /v1/chat/stream - Execute one chat turn (SSE streaming response)
//   - GET  /v1/conversations/{id}/messages - Read conversation history
//   - DELETE /v1/conversations/{id} - Delete conversation history
//   - GET  /v1/stocks/{symbol}/data - Daily candles from the market data source
//
// Conversation endpoints identify the caller through the X-Client-Session
// header; history is scoped to (session, conversation) pairs.
//
// # SSE Streaming
//
// Streamed responses replay the completed assistant message as named events:
//
//	event: token
//	data: {"delta": "Hello "}
//
//	event: message_end
//	data: {"message_id": "...", "usage": {"input_tokens": 0, "output_tokens": 12}}
//
// A failed turn terminates the stream with a single error event carrying the
// same code/message/trace_id triple as the JSON error envelope.
//
// # Errors
//
// All non-streaming failures share one envelope:
//
//	{"error": {"code": "BAD_REQUEST", "message": "...", "trace_id": "..."}}
//
// trace_id echoes the caller's X-Request-ID when present.
//
// # Lifecycle
//
// Start the gateway:
//
//	gw, err := gateway.New(cfg, eng, logger, version)
//	err = gw.Run(ctx) // blocks until ctx is canceled
//
// Run shuts the server down gracefully when the context is canceled and
// closes the session store.
package gateway
