package project

import (
	"fmt"

	"github.com/ivlev/compositor/internal/timecode"
)

// Sync replaces the canvas settings and the component list with specs, in
// order. Components are matched by ID: matched ones are updated in place
// and keep their media unless their source changed, new ones are loaded and
// missing ones are closed. Every spec is validated before anything is
// modified, so a failed Sync leaves the project untouched.
func (p *Project) Sync(width, height int, length timecode.Time, specs []ComponentSpec) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidComponent, width, height)
	}
	next := make([]*Component, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		c := spec.component()
		if seen[c.ID] {
			return fmt.Errorf("%w: component %d: duplicate id %q", ErrInvalidComponent, i, c.ID)
		}
		seen[c.ID] = true
		if err := validateComponent(c); err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
		next = append(next, c)
	}

	existing := make(map[string]*Component, len(p.components))
	for _, c := range p.components {
		existing[c.ID] = c
	}

	result := make([]*Component, 0, len(next))
	for _, n := range next {
		if cur, ok := existing[n.ID]; ok {
			p.commit(cur, n)
			result = append(result, cur)
			delete(existing, n.ID)
			continue
		}
		p.reload(n)
		result = append(result, n)
	}
	for _, stale := range existing {
		if err := stale.closeMedia(); err != nil {
			p.logger.Warn("close component media", "component", stale.ID, "error", err)
		}
	}

	p.Width, p.Height, p.Length = width, height, length
	p.components = result
	return nil
}
