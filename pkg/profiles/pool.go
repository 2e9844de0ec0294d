package profiles

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Pool is the ordered set of profiles a scheduler may assign.
type Pool struct {
	dir     *Dir
	locker  Locker
	include []glob.Glob
	exclude []glob.Glob
}

// PoolOption configures a Pool.
type PoolOption func(*Pool) error

// WithInclude keeps only profiles matching one of the glob patterns.
func WithInclude(patterns ...string) PoolOption {
	return func(p *Pool) error {
		gs, err := compileAll(patterns)
		if err != nil {
			return err
		}
		p.include = append(p.include, gs...)
		return nil
	}
}

// WithExclude drops profiles matching one of the glob patterns.
func WithExclude(patterns ...string) PoolOption {
	return func(p *Pool) error {
		gs, err := compileAll(patterns)
		if err != nil {
			return err
		}
		p.exclude = append(p.exclude, gs...)
		return nil
	}
}

// WithLocker replaces the lock primitive, which defaults to the Dir.
func WithLocker(l Locker) PoolOption {
	return func(p *Pool) error {
		p.locker = l
		return nil
	}
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid profile pattern %q: %w", pattern, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// NewPool returns the pool of profiles under dir.
func NewPool(dir *Dir, opts ...PoolOption) (*Pool, error) {
	p := &Pool{dir: dir, locker: dir}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Pool) selected(name string) bool {
	for _, g := range p.exclude {
		if g.Match(name) {
			return false
		}
	}
	if len(p.include) == 0 {
		return true
	}
	for _, g := range p.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Names returns the profiles of the pool in lexical order.
func (p *Pool) Names() ([]string, error) {
	all, err := p.dir.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, name := range all {
		if p.selected(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// FirstFree returns the first profile whose lock is absent.
func (p *Pool) FirstFree() (string, bool, error) {
	names, err := p.Names()
	if err != nil {
		return "", false, err
	}
	for _, name := range names {
		if !p.locker.Exists(name) {
			return name, true, nil
		}
	}
	return "", false, nil
}

// Locker returns the lock primitive of the pool.
func (p *Pool) Locker() Locker {
	return p.locker
}
