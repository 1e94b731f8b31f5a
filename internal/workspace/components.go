package workspace

import (
	"encoding/json"
	"fmt"
)

// Kind is the wire discriminator for a dashboard component.
type Kind string

const (
	KindArticle      Kind = "article"
	KindContainer    Kind = "container"
	KindDataGrid     Kind = "datagrid"
	KindDataViz      Kind = "dataviz"
	KindLegend       Kind = "legend"
	KindMonitor      Kind = "monitor"
	KindPlot         Kind = "plot"
	KindPromo        Kind = "promo"
	KindRelatedLinks Kind = "relatedLinks"
	KindScreener     Kind = "screener"
	KindSelector     Kind = "selector"
	KindSeparator    Kind = "separator"
)

// Component is a single dashboard widget. The set of implementations is
// closed: every kind lives in this package, and decode dispatches over the
// full set so an unknown discriminator is a structured error rather than a
// silent gap.
type Component interface {
	Kind() Kind
	ID() string
	// Width is the component's grid width in units (1-12). Zero means the
	// width is unset and the layout encoder allocates it.
	Width() int

	wireParams() interface{}
	rowElement()
	columnElement()
}

type base struct {
	id    string
	width int
}

func (b base) ID() string { return b.id }
func (b base) Width() int { return b.width }
func (b base) rowElement() {}
func (b base) columnElement() {}

// PlotParams references a persisted chart by ID.
type PlotParams struct {
	PlotID     string `json:"plotId"`
	HideLegend bool   `json:"hideLegend,omitempty"`
}

type Plot struct {
	base
	Params PlotParams
}

func NewPlot(id string, width int, params PlotParams) Plot {
	return Plot{base{id, width}, params}
}

func (Plot) Kind() Kind { return KindPlot }
func (c Plot) wireParams() interface{} { return c.Params }

// DataGridParams references a persisted monitor-style grid by ID.
type DataGridParams struct {
	DataGridID string `json:"dataGridId"`
}

type DataGrid struct {
	base
	Params DataGridParams
}

func NewDataGrid(id string, width int, params DataGridParams) DataGrid {
	return DataGrid{base{id, width}, params}
}

func (DataGrid) Kind() Kind { return KindDataGrid }
func (c DataGrid) wireParams() interface{} { return c.Params }

// DataVizParams references a saved visualization by ID.
type DataVizParams struct {
	VisualizationID string `json:"visualizationId"`
}

type DataViz struct {
	base
	Params DataVizParams
}

func NewDataViz(id string, width int, params DataVizParams) DataViz {
	return DataViz{base{id, width}, params}
}

func (DataViz) Kind() Kind { return KindDataViz }
func (c DataViz) wireParams() interface{} { return c.Params }

// MonitorParams references a market monitor by ID.
type MonitorParams struct {
	MonitorID string `json:"monitorId"`
}

type Monitor struct {
	base
	Params MonitorParams
}

func NewMonitor(id string, width int, params MonitorParams) Monitor {
	return Monitor{base{id, width}, params}
}

func (Monitor) Kind() Kind { return KindMonitor }
func (c Monitor) wireParams() interface{} { return c.Params }

// ScreenerParams references an asset screener by ID.
type ScreenerParams struct {
	ScreenerID string `json:"screenerId"`
}

type Screener struct {
	base
	Params ScreenerParams
}

func NewScreener(id string, width int, params ScreenerParams) Screener {
	return Screener{base{id, width}, params}
}

func (Screener) Kind() Kind { return KindScreener }
func (c Screener) wireParams() interface{} { return c.Params }

// ArticleParams holds a free-text commentary block.
type ArticleParams struct {
	Text string `json:"text"`
}

type Article struct {
	base
	Params ArticleParams
}

func NewArticle(id string, width int, params ArticleParams) Article {
	return Article{base{id, width}, params}
}

func (Article) Kind() Kind { return KindArticle }
func (c Article) wireParams() interface{} { return c.Params }

// LegendItem is one entry in a legend component.
type LegendItem struct {
	Color   string `json:"color"`
	Icon    string `json:"icon,omitempty"`
	Name    string `json:"name"`
	Tooltip string `json:"tooltip,omitempty"`
}

type LegendParams struct {
	Items       []LegendItem `json:"items"`
	Position    string       `json:"position,omitempty"`
	Transparent bool         `json:"transparent,omitempty"`
}

type Legend struct {
	base
	Params LegendParams
}

func NewLegend(id string, width int, params LegendParams) Legend {
	return Legend{base{id, width}, params}
}

func (Legend) Kind() Kind { return KindLegend }
func (c Legend) wireParams() interface{} { return c.Params }

// PromoParams holds a highlighted banner message.
type PromoParams struct {
	Text        string `json:"text"`
	Link        string `json:"link,omitempty"`
	Size        string `json:"size,omitempty"`
	Transparent bool   `json:"transparent,omitempty"`
}

type Promo struct {
	base
	Params PromoParams
}

func NewPromo(id string, width int, params PromoParams) Promo {
	return Promo{base{id, width}, params}
}

func (Promo) Kind() Kind { return KindPromo }
func (c Promo) wireParams() interface{} { return c.Params }

// RelatedLink is one entry in a related-links component.
type RelatedLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

type RelatedLinksParams struct {
	Links []RelatedLink `json:"links"`
}

type RelatedLinks struct {
	base
	Params RelatedLinksParams
}

func NewRelatedLinks(id string, width int, params RelatedLinksParams) RelatedLinks {
	return RelatedLinks{base{id, width}, params}
}

func (RelatedLinks) Kind() Kind { return KindRelatedLinks }
func (c RelatedLinks) wireParams() interface{} { return c.Params }

// SeparatorParams holds an optional section heading rendered with the rule.
type SeparatorParams struct {
	Name     string `json:"name,omitempty"`
	Size     string `json:"size,omitempty"`
	ShowMore bool   `json:"showMore,omitempty"`
}

type Separator struct {
	base
	Params SeparatorParams
}

func NewSeparator(id string, width int, params SeparatorParams) Separator {
	return Separator{base{id, width}, params}
}

func (Separator) Kind() Kind { return KindSeparator }
func (c Separator) wireParams() interface{} { return c.Params }

// ContainerParams nominates the component initially shown inside the
// container; selectors swap it at view time.
type ContainerParams struct {
	ComponentID string `json:"componentId"`
}

type Container struct {
	base
	Params ContainerParams
}

func NewContainer(id string, width int, params ContainerParams) Container {
	return Container{base{id, width}, params}
}

func (Container) Kind() Kind { return KindContainer }
func (c Container) wireParams() interface{} { return c.Params }

// SelectorParams drives conditional display of container contents by tag.
// Selector components are not positioned in the grid; they ride along in the
// component list after every referenced component.
type SelectorParams struct {
	ContainerIDs  []string `json:"containerIds"`
	Title         string   `json:"title,omitempty"`
	DefaultOption string   `json:"defaultOption,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

type Selector struct {
	base
	Params SelectorParams
}

func NewSelector(id string, params SelectorParams) Selector {
	return Selector{base{id: id}, params}
}

func (Selector) Kind() Kind { return KindSelector }
func (c Selector) wireParams() interface{} { return c.Params }

// wireComponent is the persisted form of a component inside the workspace
// parameters document.
type wireComponent struct {
	ID         string          `json:"id"`
	Type       Kind            `json:"type"`
	Parameters json.RawMessage `json:"parameters"`
}

func encodeComponent(c Component) (wireComponent, error) {
	raw, err := json.Marshal(c.wireParams())
	if err != nil {
		return wireComponent{}, fmt.Errorf("marshal %s component %q parameters: %w", c.Kind(), c.ID(), err)
	}
	return wireComponent{ID: c.ID(), Type: c.Kind(), Parameters: raw}, nil
}

// decodeComponent rebuilds a typed component from its wire form. scale is the
// width recovered from the layout string; zero for unpositioned components.
// The switch is exhaustive over the closed kind set.
func decodeComponent(w wireComponent, scale int) (Component, error) {
	unmarshal := func(dst interface{}) error {
		if len(w.Parameters) == 0 {
			return nil
		}
		if err := json.Unmarshal(w.Parameters, dst); err != nil {
			return decodeErrf(-1, "component %q: bad %s parameters: %v", w.ID, w.Type, err)
		}
		return nil
	}

	switch w.Type {
	case KindArticle:
		var p ArticleParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewArticle(w.ID, scale, p), nil
	case KindContainer:
		var p ContainerParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewContainer(w.ID, scale, p), nil
	case KindDataGrid:
		var p DataGridParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewDataGrid(w.ID, scale, p), nil
	case KindDataViz:
		var p DataVizParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewDataViz(w.ID, scale, p), nil
	case KindLegend:
		var p LegendParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewLegend(w.ID, scale, p), nil
	case KindMonitor:
		var p MonitorParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewMonitor(w.ID, scale, p), nil
	case KindPlot:
		var p PlotParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewPlot(w.ID, scale, p), nil
	case KindPromo:
		var p PromoParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewPromo(w.ID, scale, p), nil
	case KindRelatedLinks:
		var p RelatedLinksParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewRelatedLinks(w.ID, scale, p), nil
	case KindScreener:
		var p ScreenerParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewScreener(w.ID, scale, p), nil
	case KindSelector:
		var p SelectorParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewSelector(w.ID, p), nil
	case KindSeparator:
		var p SeparatorParams
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewSeparator(w.ID, scale, p), nil
	default:
		return nil, decodeErrf(-1, "unknown component type %q for component %q", w.Type, w.ID)
	}
}
