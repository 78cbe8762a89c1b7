package errors

import (
	"fmt"
	"sort"
)

// static lookup from kind to rendering rule
// built once at startup; there are no mutating methods
type Registry struct {
	entries  map[Kind]Entry
	fallback Entry
}

// builds a registry from the built-in entries plus domain entries
// a domain entry with a built-in kind replaces the built-in rule
func NewRegistry(domain ...Entry) (*Registry, error) {
	entries := make(map[Kind]Entry)

	for _, entry := range defaultEntries() {
		entries[entry.Kind] = entry
	}

	seen := make(map[Kind]bool, len(domain))

	for _, entry := range domain {
		if err := validateEntry(entry); err != nil {
			return nil, err
		}

		if seen[entry.Kind] {
			return nil, fmt.Errorf("duplicate registry entry for kind %q", entry.Kind)
		}

		seen[entry.Kind] = true
		entries[entry.Kind] = entry
	}

	return &Registry{
		entries:  entries,
		fallback: entries[KindInternal],
	}, nil
}

// returns a registry with only the built-in entries
func DefaultRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err) // built-in entries are static
	}

	return r
}

func validateEntry(entry Entry) error {
	if entry.Kind == "" {
		return fmt.Errorf("registry entry has empty kind")
	}

	if entry.Status < 400 || entry.Status > 599 {
		return fmt.Errorf("registry entry %q has status %d outside 400-599", entry.Kind, entry.Status)
	}

	if entry.Code == "" {
		return fmt.Errorf("registry entry %q has empty code", entry.Kind)
	}

	if entry.Message == "" {
		return fmt.Errorf("registry entry %q has empty message", entry.Kind)
	}

	return nil
}

// returns the rule for kind, or the internal-error rule for unknown kinds
func (r *Registry) Lookup(kind Kind) Entry {
	if entry, ok := r.entries[kind]; ok {
		return entry
	}

	return r.fallback
}

// reports whether kind has its own entry
func (r *Registry) Has(kind Kind) bool {
	_, ok := r.entries[kind]
	return ok
}

// returns every registered kind, sorted
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.entries))
	for kind := range r.entries {
		kinds = append(kinds, kind)
	}

	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// maps any error to its rendering; never panics
func (r *Registry) Render(err error) (out Rendering) {
	defer func() {
		if rec := recover(); rec != nil {
			out = r.fallbackRendering(fmt.Errorf("rendering panicked: %v", rec))
		}
	}()

	e := From(err)
	if e == nil {
		return r.fallbackRendering(fmt.Errorf("render called without an error"))
	}

	entry, ok := r.entries[e.kind]
	if !ok {
		return r.fallbackRendering(e)
	}

	out = Rendering{
		Kind:    entry.Kind,
		Status:  entry.Status,
		Code:    entry.Code,
		Message: entry.Message,
		Cause:   e,
	}

	if e.status >= 400 && e.status <= 599 {
		out.Status = e.status
	}

	if e.code != "" {
		out.Code = e.code
	}

	if !entry.Expose {
		return out
	}

	if e.message != "" {
		out.Message = e.message
	}

	if entry.Details != nil {
		out.Details = entry.Details(e)
	} else {
		out.Details = e.details
	}

	return out
}

func (r *Registry) fallbackRendering(cause error) Rendering {
	return Rendering{
		Kind:    r.fallback.Kind,
		Status:  r.fallback.Status,
		Code:    r.fallback.Code,
		Message: r.fallback.Message,
		Cause:   cause,
	}
}
