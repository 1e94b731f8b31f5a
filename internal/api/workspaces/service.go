// Package workspaces wraps the Marquee workspace endpoints: CRUD over
// dashboard definitions, decoded through the layout codec.
package workspaces

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gsquant/marquee-go/internal/session"
	"github.com/gsquant/marquee-go/internal/workspace"
)

// Workspaces change rarely; reads are cached briefly so a render pass does
// not refetch the same document.
const readTTL = 30 * time.Second

type Service struct {
	session *session.Session
}

func NewService(s *session.Session) *Service {
	return &Service{session: s}
}

// Get fetches a workspace by its ID.
func (s *Service) Get(ctx context.Context, id string) (*workspace.Workspace, error) {
	var ws workspace.Workspace
	path := "/workspaces/" + url.PathEscape(id)
	if err := s.session.Get(ctx, path, &ws, session.WithCacheTTL(readTTL)); err != nil {
		return nil, fmt.Errorf("get workspace %s: %w", id, err)
	}
	return &ws, nil
}

// GetByAlias fetches a workspace by its URL alias.
func (s *Service) GetByAlias(ctx context.Context, alias string) (*workspace.Workspace, error) {
	var ws workspace.Workspace
	path := "/workspaces/alias/" + url.PathEscape(alias)
	if err := s.session.Get(ctx, path, &ws, session.WithCacheTTL(readTTL)); err != nil {
		return nil, fmt.Errorf("get workspace by alias %s: %w", alias, err)
	}
	return &ws, nil
}

// Create persists a new workspace and returns the stored version with its
// server-assigned ID and timestamps.
func (s *Service) Create(ctx context.Context, ws *workspace.Workspace) (*workspace.Workspace, error) {
	var created workspace.Workspace
	if err := s.session.Post(ctx, "/workspaces", ws, &created); err != nil {
		return nil, fmt.Errorf("create workspace %q: %w", ws.Name(), err)
	}
	log.Info().
		Str("workspace_id", created.ID()).
		Str("name", created.Name()).
		Msg("workspace created")
	return &created, nil
}

// Update replaces an existing workspace. The workspace must carry its ID.
func (s *Service) Update(ctx context.Context, ws *workspace.Workspace) (*workspace.Workspace, error) {
	if ws.ID() == "" {
		return nil, fmt.Errorf("update workspace %q: missing ID", ws.Name())
	}
	var updated workspace.Workspace
	path := "/workspaces/" + url.PathEscape(ws.ID())
	if err := s.session.Put(ctx, path, ws, &updated); err != nil {
		return nil, fmt.Errorf("update workspace %s: %w", ws.ID(), err)
	}
	return &updated, nil
}

// Delete removes a workspace by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	path := "/workspaces/" + url.PathEscape(id)
	if err := s.session.Delete(ctx, path, nil); err != nil {
		return fmt.Errorf("delete workspace %s: %w", id, err)
	}
	log.Info().Str("workspace_id", id).Msg("workspace deleted")
	return nil
}
