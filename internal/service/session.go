package service

import (
	"github.com/jagoff/obsidian-para/internal/config"
	"github.com/jagoff/obsidian-para/internal/exclusion"
)

// Session bundles the per-invocation context every core operation reads:
// the loaded config, the resolved vault, and whether the exclusion registry
// has been configured for this session. Passed explicitly; there are no
// process-wide singletons.
type Session struct {
	Config     config.Config
	Exclusions *exclusion.Registry

	// exclusionsConfirmedEmpty records an explicit "yes, run with an empty
	// registry" from the caller.
	exclusionsConfirmedEmpty bool
}

// NewSession builds a session over a loaded config and registry.
func NewSession(cfg config.Config, registry *exclusion.Registry) *Session {
	return &Session{Config: cfg, Exclusions: registry}
}

// ConfirmEmptyExclusions marks an empty registry as deliberately empty for
// the rest of this session.
func (s *Session) ConfirmEmptyExclusions() {
	s.exclusionsConfirmedEmpty = true
}

// ExclusionsConfigured reports whether executable plans may be built:
// the registry is non-empty, or its emptiness was explicitly confirmed.
func (s *Session) ExclusionsConfigured() bool {
	if s.Exclusions == nil {
		return s.exclusionsConfirmedEmpty
	}
	return s.Exclusions.Len() > 0 || s.exclusionsConfirmedEmpty
}

// VaultPath is the resolved vault root.
func (s *Session) VaultPath() string {
	return s.Config.VaultPath
}
