// Command netintel-mcp exposes the pipeline as an MCP tool over SSE, so
// agent hosts can ask network questions through the Model Context Protocol.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shazaelmorsh/network-intelligent-platform/internal/config"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/llm"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/logs"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/pipeline"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/store"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}

	client, err := store.New(ctx, cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword)
	if err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}
	defer client.Close(ctx)

	schema, err := client.RefreshSchema(ctx)
	if err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}

	model, err := llm.New(ctx, cfg)
	if err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}

	runner, err := pipeline.New(ctx, pipeline.Deps{Model: model, Store: client, Schema: schema})
	if err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}

	svr := server.NewMCPServer("netintel", mcp.LATEST_PROTOCOL_VERSION)
	svr.AddTool(
		mcp.NewTool("ask_network",
			mcp.WithDescription("Answer a natural-language question about people, organizations and professional relationships from the network graph."),
			mcp.WithString("question",
				mcp.Required(),
				mcp.Description("The question to answer"),
			),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, ok := request.Params.Arguments.(map[string]any)
			if !ok {
				return mcp.NewToolResultError("invalid arguments"), nil
			}
			question, _ := args["question"].(string)
			if strings.TrimSpace(question) == "" {
				return mcp.NewToolResultError("question must not be empty"), nil
			}

			result, err := runner.Run(ctx, question)
			if err != nil {
				logs.Errorf("pipeline run failed: %v", err)
				return mcp.NewToolResultError(fmt.Sprintf("the question could not be processed: %v", err)), nil
			}

			text := result.Answer
			if result.CypherStatement != "" {
				text += "\n\nCypher query: " + result.CypherStatement
			}
			return mcp.NewToolResultText(text), nil
		},
	)

	logs.Infof("mcp server listening on %s", cfg.MCPAddr)
	sse := server.NewSSEServer(svr, server.WithBaseURL("http://"+cfg.MCPAddr))
	if err := sse.Start(cfg.MCPAddr); err != nil {
		logs.Errorf("mcp server: %v", err)
		os.Exit(1)
	}
}
