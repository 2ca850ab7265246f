// SPDX-License-Identifier: MPL-2.0

package loop

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/mangimangi/git-dogfood/internal/registry"
	"github.com/mangimangi/git-dogfood/internal/resolve"
)

type (
	// Releaser publishes a release for a merge and returns its version.
	Releaser interface {
		Release(ctx context.Context, commitMessage string) (version string, err error)
	}

	// RegistrySource loads the consumer's vendor registry.
	RegistrySource interface {
		Load(ctx context.Context) (*registry.Registry, error)
	}

	// Dispatcher opens the install PR for a resolved vendor.
	Dispatcher interface {
		OpenInstallPR(ctx context.Context, vendor, version, commitMessage string) error
	}

	// Controller drives one self-update cycle against its collaborators.
	Controller struct {
		releaser   Releaser
		registry   RegistrySource
		dispatcher Dispatcher
		logger     *log.Logger
	}

	// ControllerOption configures a Controller.
	ControllerOption func(*Controller)
)

// WithControllerLogger sets the logger for state transitions.
func WithControllerLogger(l *log.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = l
	}
}

// NewController wires a Controller from its collaborators.
func NewController(r Releaser, src RegistrySource, d Dispatcher, opts ...ControllerOption) *Controller {
	c := &Controller{
		releaser:   r,
		registry:   src,
		dispatcher: d,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives one cycle for a merge with the given commit message and
// returns the states it visited.
//
// A tagged merge stops at the gate. A registry that cannot be loaded for any
// reason, or one without this tool's key, ends the cycle in StateIdle with no
// error. Errors from the releaser or dispatcher are returned together with
// the trace so far.
func (c *Controller) Run(ctx context.Context, commitMessage string) (Trace, error) {
	trace := Trace{StateMerged}

	if d := ReleaseGate(commitMessage); !d.Release {
		c.logger.Info("release skipped", "reason", d.Reason)
		return append(trace, StateIdle), nil
	}

	version, err := c.releaser.Release(ctx, commitMessage)
	if err != nil {
		return trace, fmt.Errorf("releasing: %w", err)
	}
	trace = append(trace, StateReleased, StateSelfUpdateTriggered)
	c.logger.Info("released", "version", version)

	reg, err := c.registry.Load(ctx)
	if err != nil {
		// Resolution failures never get past "no vendor key found".
		c.logger.Warn("registry unavailable", "err", err)
		reg = nil
	}

	key, ok := resolve.ResolveVendor(reg)
	if !ok {
		c.logger.Info("no vendor entry for this tool", "key", resolve.CanonicalVendorKey)
		return append(trace, StateIdle), nil
	}
	trace = append(trace, StateVendorResolved)

	if err := c.dispatcher.OpenInstallPR(ctx, key, version, CommitMessage(version)); err != nil {
		return trace, fmt.Errorf("opening install PR: %w", err)
	}
	c.logger.Info("install PR opened", "vendor", key, "version", version)

	return append(trace, StateInstallPRPending), nil
}
