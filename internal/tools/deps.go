// Package tools implements the retrieval tools the assistant can call:
// course content search and course outlines. The same implementations are
// exposed to the chat model and, via MCP, to external clients.
package tools

import (
	"log/slog"

	"github.com/raphaelgruber/coursechat-go/internal/corpus"
)

// Dependencies holds shared services for tool implementations.
type Dependencies struct {
	Store  *corpus.Store
	Logger *slog.Logger
}
