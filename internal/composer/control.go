package composer

import (
	"errors"
	"fmt"
)

// ErrUnknownLabel is returned when a control label has no entry.
var ErrUnknownLabel = errors.New("unknown control label")

// ControlEntry binds a label to a layer.
type ControlEntry struct {
	Layer *Layer
	Label string
}

// Control toggles layer membership in a viewport's active set.
type Control struct {
	viewport  *Viewport
	entries   []ControlEntry
	Collapsed bool
}

// NewControl creates a control for the viewport.
func NewControl(v *Viewport, collapsed bool) *Control {
	return &Control{viewport: v, Collapsed: collapsed}
}

// AddOverlay lists a viewport layer under a label.
func (c *Control) AddOverlay(l *Layer, label string) error {
	if l == nil || l.owner != c.viewport {
		return ErrNotOwned
	}
	for _, e := range c.entries {
		if e.Label == label {
			return fmt.Errorf("duplicate control label %q", label)
		}
	}

	c.entries = append(c.entries, ControlEntry{Layer: l, Label: label})
	return nil
}

// Entries returns the control entries in display order.
func (c *Control) Entries() []ControlEntry {
	return append([]ControlEntry(nil), c.entries...)
}

// Visible reports whether the labelled layer is active.
func (c *Control) Visible(label string) (bool, error) {
	e, err := c.entry(label)
	if err != nil {
		return false, err
	}
	return c.viewport.HasLayer(e.Layer), nil
}

// Toggle flips the labelled layer and returns its new visibility.
func (c *Control) Toggle(label string) (bool, error) {
	visible, err := c.Visible(label)
	if err != nil {
		return false, err
	}
	return !visible, c.SetVisible(label, !visible)
}

// SetVisible adds or removes the labelled layer from the viewport.
func (c *Control) SetVisible(label string, visible bool) error {
	e, err := c.entry(label)
	if err != nil {
		return err
	}
	if visible {
		return c.viewport.AddLayer(e.Layer)
	}
	return c.viewport.RemoveLayer(e.Layer)
}

func (c *Control) entry(label string) (ControlEntry, error) {
	for _, e := range c.entries {
		if e.Label == label {
			return e, nil
		}
	}
	return ControlEntry{}, fmt.Errorf("%q: %w", label, ErrUnknownLabel)
}
