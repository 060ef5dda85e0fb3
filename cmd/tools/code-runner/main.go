package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/runebook/runebook/internal/sandbox"
)

func main() {
	s := server.NewMCPServer("runebook-code-runner", "0.1.0")

	langs := strings.Join(sandbox.RuntimeNames(), ", ")

	s.AddTool(mcp.Tool{
		Name:        "code_run",
		Description: fmt.Sprintf("Execute code in an isolated sandbox. Supported runtimes: %s.", langs),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"runtime": map[string]any{
					"type":        "string",
					"description": "Interpreter runtime (node, python)",
				},
				"code": map[string]any{
					"type":        "string",
					"description": "Source code to execute",
				},
				"timeout_ms": map[string]any{
					"type":        "number",
					"description": "Wall-clock ceiling in milliseconds (optional)",
				},
			},
			Required: []string{"runtime", "code"},
		},
	}, handleCodeRun)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("server error: %v\n", err)
	}
}

func handleCodeRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return errResult("error: invalid arguments"), nil
	}

	runtime, _ := args["runtime"].(string)
	code, _ := args["code"].(string)
	timeoutMS, _ := args["timeout_ms"].(float64)

	if runtime == "" || code == "" {
		return errResult("error: 'runtime' and 'code' are required"), nil
	}
	if _, ok := sandbox.RuntimeByName(runtime); !ok {
		return errResult(fmt.Sprintf("error: unsupported runtime %q", runtime)), nil
	}

	sb, err := sandbox.New(sandbox.Config{DefaultRuntime: runtime})
	if err != nil {
		return errResult(fmt.Sprintf("error: %v", err)), nil
	}

	result, err := sb.Execute(ctx, sandbox.Submission{
		Code:    code,
		Runtime: runtime,
		Limits:  sandbox.Limits{Timeout: time.Duration(timeoutMS) * time.Millisecond},
	})
	if err != nil {
		return errResult(fmt.Sprintf("error: %v", err)), nil
	}

	var output strings.Builder
	if result.Stdout != "" {
		output.WriteString(result.Stdout)
	}
	if result.Stderr != "" {
		if output.Len() > 0 {
			output.WriteString("\n")
		}
		output.WriteString("STDERR:\n" + result.Stderr)
	}
	if result.Error != "" {
		output.WriteString("\n" + result.Error)
	}
	if !result.Success() && result.ExitCode >= 0 {
		output.WriteString(fmt.Sprintf("\nexit code: %d", result.ExitCode))
	}

	text := output.String()
	if len(text) > 4000 {
		text = text[:4000] + "\n... (output truncated)"
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: !result.Success(),
	}, nil
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
