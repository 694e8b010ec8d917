package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DemoServer returns an MCPServer with a small set of tools covering every
// form path: text, number, checkbox and raw-JSON-only inputs.
func DemoServer() *server.MCPServer {
	s := server.NewMCPServer("mcp-echo", "1.0.0", server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("echo",
		mcp.WithDescription("Echo a message back"),
		mcp.WithString("msg", mcp.Required(), mcp.Description("Message to echo")),
	), handleEcho)

	s.AddTool(mcp.NewTool("add",
		mcp.WithDescription("Add two numbers"),
		mcp.WithNumber("a", mcp.Required(), mcp.Description("First operand")),
		mcp.WithNumber("b", mcp.Required(), mcp.Description("Second operand")),
	), handleAdd)

	s.AddTool(mcp.NewTool("greet",
		mcp.WithDescription("Greet someone, optionally loudly"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Who to greet")),
		mcp.WithBoolean("loud", mcp.Description("Shout the greeting")),
	), handleGreet)

	s.AddTool(mcp.NewTool("batch",
		mcp.WithDescription("Join a list of words"),
		mcp.WithArray("words", mcp.Required(), mcp.WithStringItems(), mcp.Description("Words to join")),
		mcp.WithString("sep", mcp.Description("Separator")),
	), handleBatch)

	return s
}

func handleEcho(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msg, err := req.RequireString("msg")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Echo: " + msg), nil
}

func handleAdd(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := req.RequireFloat("a")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := req.RequireFloat("b")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%g", a+b)), nil
}

func handleGreet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	greeting := "Hello, " + name
	if req.GetBool("loud", false) {
		greeting = strings.ToUpper(greeting) + "!"
	}
	return mcp.NewToolResultText(greeting), nil
}

func handleBatch(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	words, err := req.RequireStringSlice("words")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(words, req.GetString("sep", " "))), nil
}
