package shipper

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry manages registered shipping methods.
type Registry struct {
	methods map[string]Method
	mu      sync.RWMutex
}

// NewRegistry creates a new method registry.
func NewRegistry() *Registry {
	return &Registry{
		methods: make(map[string]Method),
	}
}

// Register adds a method to the registry, replacing one with the same ID.
func (r *Registry) Register(m Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[m.ID()] = m
}

// Get returns a method by ID.
func (r *Registry) Get(id string) (Method, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.methods[id]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, id)
}

// All returns all registered methods, highest priority first.
func (r *Registry) All() []Method {
	r.mu.RLock()
	result := make([]Method, 0, len(r.methods))
	for _, m := range r.methods {
		result = append(result, m)
	}
	r.mu.RUnlock()

	sortMethods(result)
	return result
}

// GetAllRates quotes every registered method in parallel. Methods that fail
// or do not apply are reported in the error slice and never fail the whole
// request. Rates come back highest priority first.
func (r *Registry) GetAllRates(ctx context.Context, req *RateRequest) ([]*Rate, []error) {
	methods := r.All()
	if len(methods) == 0 {
		return nil, []error{ErrMethodNotFound}
	}
	return quoteAll(ctx, req, methods, nil)
}

// GetRates quotes the given methods. An empty list quotes all methods.
func (r *Registry) GetRates(ctx context.Context, req *RateRequest, ids []string) ([]*Rate, []error) {
	if len(ids) == 0 {
		return r.GetAllRates(ctx, req)
	}

	methods := make([]Method, 0, len(ids))
	var errs []error
	for _, id := range ids {
		m, err := r.Get(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		methods = append(methods, m)
	}
	return quoteAll(ctx, req, methods, errs)
}

func quoteAll(ctx context.Context, req *RateRequest, methods []Method, errs []error) ([]*Rate, []error) {
	type result struct {
		priority int
		rate     *Rate
	}

	results := make([]result, 0, len(methods))
	mu := &sync.Mutex{}

	g, ctx := errgroup.WithContext(ctx)

	for _, m := range methods {
		g.Go(func() error {
			rate, err := m.Quote(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", m.ID(), err))
				return nil // Don't fail the group, continue with other methods
			}
			if rate != nil {
				results = append(results, result{priority: m.Priority(), rate: rate})
			}
			return nil
		})
	}

	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].priority != results[j].priority {
			return results[i].priority > results[j].priority
		}
		return results[i].rate.MethodID < results[j].rate.MethodID
	})
	rates := make([]*Rate, 0, len(results))
	for _, res := range results {
		rates = append(rates, res.rate)
	}
	return rates, errs
}

func sortMethods(ms []Method) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Priority() != ms[j].Priority() {
			return ms[i].Priority() > ms[j].Priority()
		}
		return ms[i].ID() < ms[j].ID()
	})
}
