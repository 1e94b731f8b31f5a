package workspace

import (
	"encoding/json"
	"fmt"
	"time"
)

// Workspace is a Marquee dashboard definition: a grid of rows and columns of
// components plus unpositioned selector components, persisted via REST.
// Workspaces are built once via NewWorkspace and not mutated afterwards; the
// codec serializes a stable snapshot.
type Workspace struct {
	id          string
	name        string
	alias       string
	description string
	disclaimer  string
	tags        []string
	rows        []*Row
	selectors   []Component
	createdTime time.Time
	updatedTime time.Time
}

// Option configures optional workspace fields at construction.
type Option func(*Workspace)

func WithID(id string) Option {
	return func(w *Workspace) { w.id = id }
}

func WithAlias(alias string) Option {
	return func(w *Workspace) { w.alias = alias }
}

func WithDescription(description string) Option {
	return func(w *Workspace) { w.description = description }
}

// WithDisclaimer sets the disclaimer text rendered under the dashboard.
func WithDisclaimer(disclaimer string) Option {
	return func(w *Workspace) { w.disclaimer = disclaimer }
}

func WithTags(tags ...string) Option {
	return func(w *Workspace) { w.tags = append([]string(nil), tags...) }
}

// WithSelectors attaches selector components. Selectors are not positioned
// in the grid; they serialize after every positioned component.
func WithSelectors(selectors ...Component) Option {
	return func(w *Workspace) { w.selectors = append([]Component(nil), selectors...) }
}

func NewWorkspace(name string, rows []*Row, opts ...Option) *Workspace {
	w := &Workspace{
		name: name,
		rows: append([]*Row(nil), rows...),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workspace) ID() string { return w.id }
func (w *Workspace) Name() string { return w.name }
func (w *Workspace) Alias() string { return w.alias }
func (w *Workspace) Description() string { return w.description }
func (w *Workspace) Disclaimer() string { return w.disclaimer }
func (w *Workspace) CreatedTime() time.Time { return w.createdTime }
func (w *Workspace) UpdatedTime() time.Time { return w.updatedTime }

func (w *Workspace) Tags() []string {
	return append([]string(nil), w.tags...)
}

func (w *Workspace) Rows() []*Row {
	return append([]*Row(nil), w.rows...)
}

func (w *Workspace) Selectors() []Component {
	return append([]Component(nil), w.selectors...)
}

// Layout returns the encoded layout string for the workspace grid.
func (w *Workspace) Layout() (string, error) {
	layout, _, err := encodeLayout(w.rows, w.selectors)
	return layout, err
}

// Grid resolves the workspace into renderable bands with computed widths.
func (w *Workspace) Grid() []GridRow {
	return resolveGrid(w.rows)
}

// wireWorkspace is the persisted document shape.
type wireWorkspace struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Alias       string         `json:"alias,omitempty"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Parameters  wireParameters `json:"parameters"`
	CreatedTime *time.Time     `json:"createdTime,omitempty"`
	UpdatedTime *time.Time     `json:"lastUpdatedTime,omitempty"`
}

type wireParameters struct {
	Layout     string          `json:"layout"`
	Components []wireComponent `json:"components"`
	Disclaimer string          `json:"disclaimer,omitempty"`
}

func (w *Workspace) MarshalJSON() ([]byte, error) {
	layout, comps, err := encodeLayout(w.rows, w.selectors)
	if err != nil {
		return nil, fmt.Errorf("encode workspace %q: %w", w.name, err)
	}
	ww := wireWorkspace{
		ID:          w.id,
		Name:        w.name,
		Alias:       w.alias,
		Description: w.description,
		Tags:        w.tags,
		Parameters: wireParameters{
			Layout:     layout,
			Components: comps,
			Disclaimer: w.disclaimer,
		},
	}
	if !w.createdTime.IsZero() {
		t := w.createdTime
		ww.CreatedTime = &t
	}
	if !w.updatedTime.IsZero() {
		t := w.updatedTime
		ww.UpdatedTime = &t
	}
	return json.Marshal(ww)
}

func (w *Workspace) UnmarshalJSON(data []byte) error {
	var ww wireWorkspace
	if err := json.Unmarshal(data, &ww); err != nil {
		return fmt.Errorf("decode workspace document: %w", err)
	}
	rows, selectors, err := parseLayout(ww.Parameters.Layout, ww.Parameters.Components)
	if err != nil {
		return fmt.Errorf("decode workspace %q layout: %w", ww.Name, err)
	}
	w.id = ww.ID
	w.name = ww.Name
	w.alias = ww.Alias
	w.description = ww.Description
	w.disclaimer = ww.Parameters.Disclaimer
	w.tags = ww.Tags
	w.rows = rows
	w.selectors = selectors
	if ww.CreatedTime != nil {
		w.createdTime = *ww.CreatedTime
	}
	if ww.UpdatedTime != nil {
		w.updatedTime = *ww.UpdatedTime
	}
	return nil
}
