// Package filter holds the per-session layer visibility and base layer state.
package filter

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownLayer     = errors.New("unknown layer")
	ErrUnknownBaseLayer = errors.New("unknown base layer")
)

// Layer identifies a toggleable record layer.
type Layer string

const (
	LayerImplementations Layer = "implementations"
	LayerProjects        Layer = "projects"
)

// BaseLayer identifies the background imagery.
type BaseLayer string

const (
	BaseStandard  BaseLayer = "standard"
	BaseSatellite BaseLayer = "satellite"
)

// ParseLayer accepts the identifiers used by the control surface.
func ParseLayer(s string) (Layer, error) {
	switch l := Layer(s); l {
	case LayerImplementations, LayerProjects:
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLayer, s)
}

func ParseBaseLayer(s string) (BaseLayer, error) {
	switch b := BaseLayer(s); b {
	case BaseStandard, BaseSatellite:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBaseLayer, s)
}

// State is a value; transitions return a new State.
type State struct {
	ShowImplementations bool      `json:"showImplementations"`
	ShowProjects        bool      `json:"showProjects"`
	ActiveBaseLayer     BaseLayer `json:"activeBaseLayer"`
}

// Initial is the state every dashboard session starts from.
func Initial() State {
	return State{
		ShowImplementations: true,
		ShowProjects:        true,
		ActiveBaseLayer:     BaseSatellite,
	}
}

// Visible reports the flag for l. Unknown layers are never visible.
func (s State) Visible(l Layer) bool {
	switch l {
	case LayerImplementations:
		return s.ShowImplementations
	case LayerProjects:
		return s.ShowProjects
	}
	return false
}

// Toggle flips the flag for l.
func (s State) Toggle(l Layer) (State, error) {
	switch l {
	case LayerImplementations:
		s.ShowImplementations = !s.ShowImplementations
	case LayerProjects:
		s.ShowProjects = !s.ShowProjects
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownLayer, l)
	}
	return s, nil
}

// WithBaseLayer replaces the active base layer.
func (s State) WithBaseLayer(b BaseLayer) (State, error) {
	if _, err := ParseBaseLayer(string(b)); err != nil {
		return s, err
	}
	s.ActiveBaseLayer = b
	return s, nil
}

// Controller owns the session State. HTTP handlers call it concurrently.
type Controller struct {
	mu    sync.RWMutex
	state State
}

func NewController() *Controller {
	return &Controller{state: Initial()}
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) Toggle(l Layer) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.state.Toggle(l)
	if err != nil {
		return c.state, err
	}
	c.state = next
	return next, nil
}

func (c *Controller) SetBaseLayer(b BaseLayer) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.state.WithBaseLayer(b)
	if err != nil {
		return c.state, err
	}
	c.state = next
	return next, nil
}
