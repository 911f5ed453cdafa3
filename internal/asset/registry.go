package asset

import (
	"strings"

	"github.com/Overmuse/acticks/internal/acerr"
)

// Registry is the read-only symbol→Asset table. It is built once, via
// NewRegistry, and never mutated afterwards, so concurrent reads from
// multiple goroutines need no lock (spec §5: "The Asset Registry is
// read-only after startup and may be shared freely").
type Registry struct {
	bySymbol map[string]Asset
	byID     map[string]Asset
}

// NewRegistry constructs an immutable registry from the given assets.
// Symbols are upper-cased; a duplicate symbol keeps the first entry.
func NewRegistry(assets []Asset) *Registry {
	r := &Registry{
		bySymbol: make(map[string]Asset, len(assets)),
		byID:     make(map[string]Asset, len(assets)),
	}
	for _, a := range assets {
		a.Symbol = strings.ToUpper(a.Symbol)
		if _, exists := r.bySymbol[a.Symbol]; exists {
			continue
		}
		r.bySymbol[a.Symbol] = a
		r.byID[a.ID.String()] = a
	}
	return r
}

// BySymbol looks up an asset by its ticker symbol.
func (r *Registry) BySymbol(symbol string) (Asset, error) {
	a, ok := r.bySymbol[symbol]
	if !ok {
		return Asset{}, acerr.NotFoundf("asset %q", symbol)
	}
	return a, nil
}

// ByID looks up an asset by its server id.
func (r *Registry) ByID(id string) (Asset, error) {
	a, ok := r.byID[id]
	if !ok {
		return Asset{}, acerr.NotFoundf("asset id %q", id)
	}
	return a, nil
}

// List returns every asset in the registry. Order is unspecified.
func (r *Registry) List() []Asset {
	out := make([]Asset, 0, len(r.bySymbol))
	for _, a := range r.bySymbol {
		out = append(out, a)
	}
	return out
}
