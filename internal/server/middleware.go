package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// paramLogLimit caps how much of a request's params lands in one log line.
	paramLogLimit = 240

	// slowRequest is the latency above which a completed request logs at
	// WARN instead of DEBUG.
	slowRequest = 150 * time.Millisecond
)

// LoggingMiddleware logs every MCP request with its latency: failures at
// ERROR, slow requests at WARN, the rest at DEBUG.
func LoggingMiddleware(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(start)

			attrs := []any{"method", method, "duration_ms", elapsed.Milliseconds()}
			if params := req.GetParams(); params != nil {
				attrs = append(attrs, "params", clip(fmt.Sprintf("%+v", params), paramLogLimit))
			}

			switch {
			case err != nil:
				logger.Error("request failed", append(attrs, "error", err.Error())...)
			case elapsed > slowRequest:
				logger.Warn("slow request", attrs...)
			default:
				logger.Debug("request completed", attrs...)
			}
			return result, err
		}
	}
}

// clip truncates s to at most n bytes, marking the cut.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
