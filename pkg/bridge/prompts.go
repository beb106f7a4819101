package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const checkStatusPrompt = "check_containerd_status"

func (s *Server) addPrompts() {
	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        checkStatusPrompt,
		Description: "Check if containerd is running",
		Arguments: []*mcp.PromptArgument{{
			Name:        "message",
			Description: "A message to put in the prompt",
			Required:    true,
		}},
	}, checkStatus)
}

func checkStatus(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	message := strings.TrimSpace(req.Params.Arguments["message"])
	if message == "" {
		return nil, fmt.Errorf("argument %q is required", "message")
	}

	text := message + "\n\n" +
		"Check whether containerd is running. Call the version tool, then runtime_status, " +
		"then list_pods. Report the runtime name and version, list every condition whose " +
		"status is false with its reason and message, and count the pods by state. If a " +
		"call fails with Unavailable, say that the runtime socket is not reachable."

	return &mcp.GetPromptResult{
		Description: "Check if containerd is running",
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: text},
		}},
	}, nil
}
