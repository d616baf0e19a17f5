// Package mcp serves extracted documentation to MCP clients over stdio.
// Three tools are exposed: full-text search over the doc tree, reading a
// single doc, and listing doc paths. The search index is refreshed whenever
// files under the docs root change.
package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/exodoc/exodoc/internal/docindex"
	"github.com/exodoc/exodoc/internal/watcher"
)

// Server manages the MCP server lifecycle.
type Server struct {
	docsRoot string
	index    *docindex.Index
	watcher  watcher.FileWatcher
	mcp      *server.MCPServer
}

// NewServer opens the search index at indexPath, builds it from the docs
// tree, and registers the documentation tools. A missing docs root is not an
// error; the server then serves an empty doc set until docs appear.
func NewServer(ctx context.Context, docsRoot, indexPath string) (*Server, error) {
	index, err := docindex.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}

	if _, err := index.Rebuild(ctx, docsRoot); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to index docs: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"exodoc-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddSearchDocsTool(mcpServer, index)
	AddReadDocTool(mcpServer, docsRoot)
	AddListDocsTool(mcpServer, docsRoot)

	s := &Server{
		docsRoot: docsRoot,
		index:    index,
		mcp:      mcpServer,
	}

	// The docs root may not exist yet (nothing extracted); watch it only
	// when it does, otherwise serve the empty index without live refresh.
	if _, statErr := os.Stat(docsRoot); statErr == nil {
		fw, werr := watcher.NewFileWatcher([]string{docsRoot}, []string{".md"}, nil)
		if werr != nil {
			index.Close()
			return nil, fmt.Errorf("failed to watch docs: %w", werr)
		}
		s.watcher = fw
	}

	return s, nil
}

// Serve starts the MCP server and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.watcher != nil {
		if err := s.watcher.Start(ctx, s.refreshIndex); err != nil {
			return fmt.Errorf("failed to start docs watcher: %w", err)
		}
		defer s.watcher.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases all resources.
func (s *Server) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}

// refreshIndex rebuilds the search index after docs change on disk.
func (s *Server) refreshIndex(files []string) {
	count, err := s.index.Rebuild(context.Background(), s.docsRoot)
	if err != nil {
		log.Printf("Error refreshing search index: %v (keeping old state)", err)
		return
	}
	log.Printf("Search index refreshed: %d doc(s)", count)
}
