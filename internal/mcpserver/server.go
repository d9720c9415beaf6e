// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the folio catalog read-only over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/store"
)

const formatURI = "folio://snapshot-format"

// Catalog is the snapshot view the tools read. *snapshot.Loader satisfies it.
type Catalog interface {
	site.Catalog
	Load(ctx context.Context) (models.Snapshot, error)
}

// Server wraps the MCP server with folio tools.
type Server struct {
	mcp     *server.MCPServer
	catalog Catalog
	runs    store.RunHistory
}

// New creates a new MCP server with all folio tools registered. runs may be nil.
func New(catalog Catalog, runs store.RunHistory) *Server {
	s := &Server{catalog: catalog, runs: runs}

	s.mcp = server.NewMCPServer(
		"Folio",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List portfolio projects in display order with their lock status."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Get one project by id. Media paths of locked projects are withheld."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project id (e.g. proj_01)")),
	), s.getProject)

	s.mcp.AddTool(mcp.NewTool("list_about",
		mcp.WithDescription("Biography entries grouped by section, with rendered date labels."),
		mcp.WithString("section", mcp.Description("Optional section filter: EXPERIENCE, EDUCATION, CERTIFICATE or RESEARCH")),
	), s.listAbout)

	s.mcp.AddTool(mcp.NewTool("list_vault",
		mcp.WithDescription("Number of items in the locked vault gallery."),
	), s.listVault)

	s.mcp.AddTool(mcp.NewTool("snapshot_info",
		mcp.WithDescription("When the snapshot was produced, collection sizes, setting names and the last sync run. "+
			"Read the snapshot format via the folio://snapshot-format resource."),
	), s.snapshotInfo)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Snapshot Format",
			mcp.WithResourceDescription("Layout of the published catalog snapshot."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type projectSummary struct {
	ID       string  `json:"id"`
	Number   string  `json:"number"`
	Title    string  `json:"title"`
	Year     int     `json:"year"`
	Category string  `json:"category"`
	Order    float64 `json:"order"`
	Locked   bool    `json:"locked"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.catalog.Projects(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]projectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectSummary{
			ID: p.ID, Number: p.Number, Title: p.Title, Year: p.Year,
			Category: p.Category, Order: p.Order, Locked: p.Locked(),
		})
	}
	return jsonResult(out)
}

func (s *Server) getProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.catalog.Project(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.Locked() {
		p.Images = []string{}
		p.CoverImage = nil
		p.ThumbnailImage = nil
	}
	return jsonResult(p)
}

func (s *Server) listAbout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.catalog.About(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sections := site.GroupAbout(entries)
	if want := req.GetString("section", ""); want != "" {
		filtered := sections[:0]
		for _, sec := range sections {
			if sec.Section == want {
				filtered = append(filtered, sec)
			}
		}
		sections = filtered
	}
	return jsonResult(sections)
}

func (s *Server) listVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.catalog.Vault(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("vault holds %d items (password protected)", len(items))), nil
}

type runInfo struct {
	StartedAt  string            `json:"startedAt"`
	DurationMS int64             `json:"durationMs"`
	Failures   map[string]string `json:"failures,omitempty"`
}

type snapshotInfo struct {
	LastUpdated string         `json:"lastUpdated"`
	Counts      map[string]int `json:"counts"`
	SettingKeys []string       `json:"settingKeys"`
	LastRun     *runInfo       `json:"lastRun,omitempty"`
}

func (s *Server) snapshotInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.catalog.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info := snapshotInfo{
		LastUpdated: snap.LastUpdated,
		Counts: map[string]int{
			"projects": len(snap.Projects),
			"about":    len(snap.About),
			"vault":    len(snap.Vault),
			"settings": len(snap.Settings),
		},
		SettingKeys: make([]string, 0, len(snap.Settings)),
	}
	for k := range snap.Settings {
		info.SettingKeys = append(info.SettingKeys, k)
	}
	sort.Strings(info.SettingKeys)

	if s.runs != nil {
		run, err := s.runs.LastRun(ctx)
		if err == nil {
			info.LastRun = &runInfo{
				StartedAt:  run.StartedAt.UTC().Format(models.TimestampLayout),
				DurationMS: run.Duration().Milliseconds(),
				Failures:   run.Failures,
			}
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return jsonResult(info)
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     SnapshotFormatContract,
		},
	}, nil
}
