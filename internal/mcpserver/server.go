// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/veleda/ansuz/internal/chat"
	"github.com/veleda/ansuz/internal/noteservice"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *noteservice.Service
	engine *chat.Engine
}

// New creates a new MCP server with all Ansuz tools registered.
func New(svc *noteservice.Service, engine *chat.Engine) *Server {
	s := &Server{svc: svc, engine: engine}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, pinned first then most recently updated."),
		mcp.WithString("folder_id", mcp.Description("Optional folder id to restrict the listing")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes by title and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("ask_notes",
		mcp.WithDescription("Answer a question using the notes as context. "+
			"Relevant notes are retrieved, assembled into a prompt, and sent to the configured model."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
	), s.askNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. The title is derived from the content when omitted."),
		mcp.WithString("title", mcp.Description("Note title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body, Markdown or HTML")),
	), s.createNote)

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

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folderID := ""
	if f, err := req.RequireString("folder_id"); err == nil {
		folderID = f
	}
	items, err := s.svc.ListNotes(ctx, folderID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) askNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := s.engine.Ask(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString(answer.Answer)
	if len(answer.RelevantNotes) > 0 {
		b.WriteString("\n\nSources:\n")
		for _, r := range answer.RelevantNotes {
			fmt.Fprintf(&b, "- %s (%.1f%%)\n", r.Note.Title, r.Score*100)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title := ""
	if t, err := req.RequireString("title"); err == nil {
		title = t
	}
	note, err := s.svc.CreateNote(ctx, title, content, "", false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%s)", note.Title, note.ID)), nil
}
