// Package prefs implements the display preference controller. It keeps the
// rendered page state (light-mode marker, toggle label) in sync with the
// visitor's persisted theme preference.
package prefs

import (
	"context"
	"errors"
	"fmt"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/shade/app/enum"
	"github.com/umputun/shade/app/store"
)

//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store

// Store persists a single visitor's theme preference.
// Defined here (consumer side) to allow different store implementations.
type Store interface {
	Get(ctx context.Context) (enum.Theme, error)
	Set(ctx context.Context, theme enum.Theme) error
}

// Root is the top-level display container. The light-mode marker is the
// single source of the currently displayed mode.
type Root interface {
	LightMode() bool
	SetLightMode(on bool)
}

// Control is the visible toggle element with a text label. Pages without a
// toggle pass nil and only the root marker is maintained.
type Control interface {
	SetLabel(label string)
}

// Controller synchronizes the displayed mode with the stored preference.
// The displayed mode is always a pure function of the last applied theme.
type Controller struct {
	store   Store
	root    Root
	control Control
}

// New creates a Controller for the given store and display handles.
// control may be nil when the page has no toggle element.
func New(st Store, root Root, control Control) *Controller {
	return &Controller{store: st, root: root, control: control}
}

// Init resolves the stored preference and applies it to the display.
// Absent, unreadable or unparseable preferences all resolve to dark;
// storage failures are logged but never surfaced.
func (c *Controller) Init(ctx context.Context) enum.Theme {
	theme := enum.ThemeDark
	stored, err := c.store.Get(ctx)
	switch {
	case err == nil:
		theme = stored
	case errors.Is(err, store.ErrNotFound):
		// nothing stored yet, keep the default
	default:
		log.Printf("[WARN] failed to read stored preference, using default: %v", err)
	}
	c.Apply(theme)
	return theme
}

// Apply projects the theme onto the display: the light-mode marker is set
// exactly when the theme is light, and the control label matches the theme.
// Repeated calls with the same theme leave the display unchanged.
func (c *Controller) Apply(theme enum.Theme) {
	c.root.SetLightMode(theme == enum.ThemeLight)
	if c.control == nil {
		return // no toggle on this page, root marker still maintained
	}
	c.control.SetLabel(theme.Label())
}

// Toggle flips the mode based on what is currently displayed, not on what
// is stored. The display is updated first, then the result is persisted;
// a failed write is returned but leaves the updated display in place.
func (c *Controller) Toggle(ctx context.Context) (enum.Theme, error) {
	current := enum.ThemeDark
	if c.root.LightMode() {
		current = enum.ThemeLight
	}

	next := current.Toggle()
	c.Apply(next)

	if err := c.store.Set(ctx, next); err != nil {
		return next, fmt.Errorf("failed to persist preference %s: %w", next, err)
	}
	return next, nil
}
