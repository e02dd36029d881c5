// Package mapview composes filter state, stored records and marker styles
// into the scene the dashboard draws.
package mapview

import (
	"fmt"
	"time"

	"dost-atlas/filter"
	"dost-atlas/markers"
	"dost-atlas/models"
	"dost-atlas/store"
)

// TimestampLayout is the popup creation time format, e.g. "Nov 3, 2025, 10:15 AM".
const TimestampLayout = "Jan 2, 2006, 3:04 PM"

type Badge struct {
	Text  string        `json:"text"`
	Theme markers.Theme `json:"theme"`
}

type PopupField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Popup struct {
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	Badge    *Badge       `json:"badge,omitempty"`
	Fields   []PopupField `json:"fields"`
}

type Marker struct {
	ID          string             `json:"id"`
	Layer       filter.Layer       `json:"layer,omitempty"`
	Position    models.Coordinates `json:"position"`
	Descriptor  markers.Descriptor `json:"descriptor"`
	Popup       Popup              `json:"popup"`
	Placeholder bool               `json:"placeholder,omitempty"`
}

// Notice is an inline loading or error line for one collection.
type Notice struct {
	Layer   filter.Layer `json:"layer"`
	Level   string       `json:"level"`
	Message string       `json:"message"`
}

type LegendEntry struct {
	Category markers.Category `json:"category"`
	Label    string           `json:"label"`
	Theme    markers.Theme    `json:"theme"`
	Layer    filter.Layer     `json:"layer"`
	Visible  bool             `json:"visible"`
}

type Scene struct {
	Viewport  Viewport      `json:"viewport"`
	BaseLayer BaseLayerDef  `json:"baseLayer"`
	Filter    filter.State  `json:"filter"`
	Markers   []Marker      `json:"markers"`
	Notices   []Notice      `json:"notices,omitempty"`
	Legend    []LegendEntry `json:"legend"`
}

// Renderer is stateless apart from the zone used for timestamps.
type Renderer struct {
	loc *time.Location
}

func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc}
}

// Render builds the scene. The viewport is always Region.
func (r *Renderer) Render(state filter.State, snap store.Snapshot) Scene {
	scene := Scene{
		Viewport:  Region,
		BaseLayer: BaseLayerFor(state.ActiveBaseLayer),
		Filter:    state,
		Markers:   []Marker{},
		Legend:    legend(state),
	}

	if snap.Empty() {
		scene.Markers = append(scene.Markers, placeholder())
	} else {
		if state.ShowImplementations {
			for _, p := range snap.Implementations.Items {
				scene.Markers = append(scene.Markers, r.implementationMarker(p))
			}
		}
		if state.ShowProjects {
			for _, p := range snap.Projects.Items {
				scene.Markers = append(scene.Markers, r.projectMarker(p))
			}
		}
	}

	scene.Notices = append(scene.Notices, notices(filter.LayerImplementations, snap.Implementations.Status, snap.Implementations.Error)...)
	scene.Notices = append(scene.Notices, notices(filter.LayerProjects, snap.Projects.Status, snap.Projects.Error)...)
	return scene
}

func (r *Renderer) implementationMarker(p models.ImplementationPoint) Marker {
	cat := markers.ForImplementation(p)
	desc := markers.BuildDescriptor(cat, markers.Options{Label: p.Place})
	return Marker{
		ID:         p.ID,
		Layer:      filter.LayerImplementations,
		Position:   p.Coordinates,
		Descriptor: desc,
		Popup: Popup{
			Title:    p.Place,
			Subtitle: "STARBOOKS implementation",
			Badge:    &Badge{Text: cat.Label(), Theme: desc.Theme},
			Fields: []PopupField{
				{Label: "Coordinates", Value: FormatCoordinates(p.Coordinates)},
				{Label: "Created", Value: r.FormatTimestamp(p.CreatedAt)},
			},
		},
	}
}

func (r *Renderer) projectMarker(p models.ProjectPoint) Marker {
	cat := markers.ForProject(p)
	desc := markers.BuildDescriptor(cat, markers.Options{Label: p.ProjectTitle})
	program := p.ProgramType
	if program == "" {
		program = "Unspecified"
	}
	return Marker{
		ID:         p.ID,
		Layer:      filter.LayerProjects,
		Position:   p.Coordinates,
		Descriptor: desc,
		Popup: Popup{
			Title:    p.ProjectTitle,
			Subtitle: p.Location,
			Badge:    &Badge{Text: cat.Label(), Theme: desc.Theme},
			Fields: []PopupField{
				{Label: "Program", Value: program},
				{Label: "Coordinates", Value: FormatCoordinates(p.Coordinates)},
				{Label: "Created", Value: r.FormatTimestamp(p.CreatedAt)},
			},
		},
	}
}

func placeholder() Marker {
	return Marker{
		ID:          PlaceholderID,
		Position:    Region.Center,
		Descriptor:  markers.BuildDescriptor(markers.UnknownProgram, markers.Options{Placeholder: true}),
		Placeholder: true,
		Popup: Popup{
			Title:    RegionName,
			Subtitle: RegionCountry,
			Fields: []PopupField{
				{Label: "Coordinates", Value: FormatCoordinates(Region.Center)},
				{Label: "Getting started", Value: GuidanceText},
			},
		},
	}
}

func legend(state filter.State) []LegendEntry {
	entries := make([]LegendEntry, 0, len(markers.Categories))
	for _, c := range markers.Categories {
		layer := filter.LayerImplementations
		if c.IsProgram() {
			layer = filter.LayerProjects
		}
		entries = append(entries, LegendEntry{
			Category: c,
			Label:    c.Label(),
			Theme:    markers.ResolveTheme(c),
			Layer:    layer,
			Visible:  state.Visible(layer),
		})
	}
	return entries
}

func notices(layer filter.Layer, status store.Status, msg string) []Notice {
	switch status {
	case store.StatusLoading:
		return []Notice{{Layer: layer, Level: "loading", Message: fmt.Sprintf("Loading %s…", layer)}}
	case store.StatusErrored:
		return []Notice{{Layer: layer, Level: "error", Message: msg}}
	}
	return nil
}

// FormatCoordinates uses the fixed six-decimal display precision.
func FormatCoordinates(c models.Coordinates) string {
	return fmt.Sprintf("Lat: %.6f, Lng: %.6f", c.Lat, c.Lng)
}

func (r *Renderer) FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.In(r.loc).Format(TimestampLayout)
}
