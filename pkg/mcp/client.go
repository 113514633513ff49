// Copyright 2025 CreatorCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	mcpproto "github.com/mark3labs/mcp-go/mcp"

	"github.com/creatorcore/creatorcore/pkg/config"
)

// Client is a lazily-connected MCP client for one tool server. A configured
// command runs the server as a subprocess over stdio; a URL uses the
// streamable HTTP transport.
type Client struct {
	name string
	cfg  config.MCPServerConfig

	mu        sync.Mutex
	mcpClient *client.Client
	connected bool
}

// NewClient creates an unconnected client. The connection is established on
// first call.
func NewClient(name string, cfg config.MCPServerConfig) *Client {
	return &Client{name: name, cfg: cfg}
}

// Name returns the tool family name.
func (c *Client) Name() string { return c.name }

// usesStdio reports whether the config selects the stdio transport. A
// configured command always wins; URL-only configs go over HTTP.
func usesStdio(cfg config.MCPServerConfig) bool {
	return cfg.Command != "" || cfg.Transport == "stdio"
}

func (c *Client) connect(ctx context.Context) error {
	var mcpClient *client.Client
	var err error

	if usesStdio(c.cfg) {
		env := make([]string, 0, len(c.cfg.Env))
		for k, v := range c.cfg.Env {
			env = append(env, k+"="+v)
		}
		mcpClient, err = client.NewStdioMCPClient(c.cfg.Command, env, c.cfg.Args...)
	} else {
		mcpClient, err = client.NewStreamableHttpClient(c.cfg.URL)
	}
	if err != nil {
		return fmt.Errorf("failed to create MCP client: %w", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MCP client: %w", err)
	}

	initReq := mcpproto.InitializeRequest{}
	initReq.Params.ClientInfo = mcpproto.Implementation{
		Name:    "creatorcore",
		Version: "1.0.0",
	}
	initReq.Params.ProtocolVersion = "2024-11-05"

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		_ = mcpClient.Close()
		return fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	c.mcpClient = mcpClient
	c.connected = true
	slog.Info("Connected to MCP server",
		"name", c.name,
		"command", c.cfg.Command,
		"url", c.cfg.URL)
	return nil
}

// Call invokes a tool on the server and returns its parsed text content.
func (c *Client) Call(ctx context.Context, toolName string, args map[string]any) (map[string]any, error) {
	c.mu.Lock()
	if !c.connected {
		if err := c.connect(ctx); err != nil {
			c.mu.Unlock()
			return nil, err
		}
	}
	mcpClient := c.mcpClient
	c.mu.Unlock()

	req := mcpproto.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args

	resp, err := mcpClient.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("MCP call %s/%s failed: %w", c.name, toolName, err)
	}

	return parseToolResult(resp)
}

// Close shuts the subprocess down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.mcpClient == nil {
		return nil
	}
	c.connected = false
	return c.mcpClient.Close()
}

// parseToolResult flattens a CallToolResult into a map: text payloads under
// "result"/"results", errors under "error".
func parseToolResult(resp *mcpproto.CallToolResult) (map[string]any, error) {
	result := make(map[string]any)

	var texts []string
	for _, content := range resp.Content {
		if textContent, ok := content.(mcpproto.TextContent); ok {
			texts = append(texts, textContent.Text)
		}
	}

	if resp.IsError {
		msg := "unknown error"
		if len(texts) > 0 {
			msg = texts[0]
		}
		return nil, fmt.Errorf("tool returned error: %s", msg)
	}

	switch len(texts) {
	case 0:
	case 1:
		result["result"] = texts[0]
	default:
		result["results"] = texts
	}
	return result, nil
}
