// Package portfolios wraps the Marquee portfolio endpoints used by
// dashboards: reading a portfolio and managing its position sets.
package portfolios

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gsquant/marquee-go/internal/session"
)

// Portfolio is the portfolio header document.
type Portfolio struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Position is one holding on a position date.
type Position struct {
	AssetID  string  `json:"assetId"`
	Quantity float64 `json:"quantity"`
}

// PositionSet is the positions of a portfolio on one date.
type PositionSet struct {
	PositionDate string     `json:"positionDate"`
	Positions    []Position `json:"positions"`
}

type Service struct {
	session *session.Session
}

func NewService(s *session.Session) *Service {
	return &Service{session: s}
}

// Get fetches a portfolio by ID.
func (s *Service) Get(ctx context.Context, id string) (Portfolio, error) {
	var p Portfolio
	path := "/portfolios/" + url.PathEscape(id)
	if err := s.session.Get(ctx, path, &p, session.WithCacheTTL(time.Minute)); err != nil {
		return Portfolio{}, fmt.Errorf("get portfolio %s: %w", id, err)
	}
	return p, nil
}

// Positions fetches the position set for a date (YYYY-MM-DD).
func (s *Service) Positions(ctx context.Context, id, date string) (PositionSet, error) {
	var ps PositionSet
	path := "/portfolios/" + url.PathEscape(id) + "/positions/" + url.PathEscape(date)
	if err := s.session.Get(ctx, path, &ps); err != nil {
		return PositionSet{}, fmt.Errorf("get portfolio %s positions on %s: %w", id, date, err)
	}
	return ps, nil
}

// UpdatePositions uploads position sets, replacing any existing sets on the
// same dates.
func (s *Service) UpdatePositions(ctx context.Context, id string, sets []PositionSet) error {
	path := "/portfolios/" + url.PathEscape(id) + "/positions"
	if err := s.session.Put(ctx, path, sets, nil); err != nil {
		return fmt.Errorf("update portfolio %s positions: %w", id, err)
	}
	return nil
}
