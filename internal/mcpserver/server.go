// Package mcpserver exposes the catalog as MCP tools so agents can search
// assets and obtain drag payloads.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentic-research/simready/api"
	"github.com/agentic-research/simready/internal/catalog"
	"github.com/agentic-research/simready/internal/log"
	"github.com/agentic-research/simready/internal/search"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const version = "0.1.0"

// Server binds catalog operations to MCP tools.
type Server struct {
	Index          *catalog.Index
	Policy         search.SubsetPolicy
	DefaultPhysics string
	Log            *log.Logger

	mcp *server.MCPServer
}

func New(x *catalog.Index, policy search.SubsetPolicy, defaultPhysics string, l *log.Logger) *Server {
	s := &Server{Index: x, Policy: policy, DefaultPhysics: defaultPhysics, Log: l.Named("mcp")}
	s.mcp = server.NewMCPServer("simready", version, server.WithToolCapabilities(false))

	s.mcp.AddTool(mcp.NewTool("find_assets",
		mcp.WithDescription("Search assets by words matched against names and tags. "+
			"Every word must match. With a category, words implied by the category are dropped."),
		mcp.WithArray("words", mcp.Description("Search words; empty lists everything"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("category", mcp.Description("Label path of a category, e.g. furniture/seat")),
	), s.findAssets)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List categories with asset counts. Without a label, lists ALL and the top-level labels."),
		mcp.WithString("label", mcp.Description("Parent label whose subcategories to list")),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List the sorted tag vocabulary of a category"),
		mcp.WithString("category", mcp.Description("Label path; empty is ALL")),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("drag_payload",
		mcp.WithDescription("Build the drag payload that adds an asset to a scene"),
		mcp.WithString("url", mcp.Required(), mcp.Description("Asset locator")),
		mcp.WithString("physics", mcp.Description("Physics variant value, or None")),
	), s.dragPayload)

	s.mcp.AddTool(mcp.NewTool("reload_folder",
		mcp.WithDescription("Reload one catalog folder from storage"),
		mcp.WithString("folder", mcp.Required(), mcp.Description("Folder locator")),
	), s.reloadFolder)

	return s
}

// ServeStdio serves MCP over stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) ready(ctx context.Context) {
	s.Index.Start(ctx)
	if err := s.Index.Wait(ctx); err != nil {
		s.Log.Warn("catalog not fully loaded: %v", err)
	}
}

func (s *Server) findAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.ready(ctx)
	words := req.GetStringSlice("words", nil)
	category := req.GetString("category", "")

	session := search.NewSession(s.Index, s.Policy)
	if category != "" {
		session.SelectCategory(category)
	}
	res := session.Search(words)

	out := struct {
		Category    string      `json:"category"`
		Assets      []api.Asset `json:"assets"`
		Suggestions []string    `json:"suggestions"`
	}{Category: res.Category, Suggestions: res.Suggestions, Assets: make([]api.Asset, 0, len(res.Records))}
	if out.Category == "" {
		out.Category = catalog.AllName
	}
	for _, r := range res.Records {
		out.Assets = append(out.Assets, api.NewAsset(r))
	}
	return jsonResult(out)
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.ready(ctx)
	label := req.GetString("label", "")
	if label == "" {
		return jsonResult(s.Index.Categories())
	}
	cats, err := s.Index.SubCategories(label)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", label, err)), nil
	}
	return jsonResult(cats)
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.ready(ctx)
	return jsonResult(s.Index.Tags(req.GetString("category", "")))
}

func (s *Server) dragPayload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.ready(ctx)

	for _, r := range s.Index.Assets("") {
		if r.Locator != url {
			continue
		}
		item := catalog.NewItem(r, s.DefaultPhysics)
		if physics := req.GetString("physics", ""); physics != "" {
			if err := item.SetPhysics(physics); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		line, err := api.Encode(item.Payload())
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(line), nil
	}
	return mcp.NewToolResultError(fmt.Sprintf("no asset with url %s", url)), nil
}

func (s *Server) reloadFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder, err := req.RequireString("folder")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.Index.Reload(ctx, folder); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("reloaded %s: %d assets", folder, s.Index.Snapshot().Len())), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}
