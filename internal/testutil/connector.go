package testutil

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/guarzo/crosslist/internal/connector"
	"github.com/guarzo/crosslist/internal/model"
)

// FakeConnector is a scripted connector that counts Search calls.
type FakeConnector struct {
	Name      connector.Platform
	Cap       connector.Capability
	Available bool
	Auth      bool

	Results []model.SearchResult
	Err     error
	Panic   any
	// Delay blocks Search until it elapses or the context ends.
	Delay time.Duration

	calls atomic.Int32
}

var _ connector.Connector = (*FakeConnector)(nil)

// NewFakeConnector returns an available APISearch connector returning results.
func NewFakeConnector(platform connector.Platform, results ...model.SearchResult) *FakeConnector {
	return &FakeConnector{
		Name:      platform,
		Cap:       connector.APISearch,
		Available: true,
		Results:   results,
	}
}

func (f *FakeConnector) Platform() connector.Platform     { return f.Name }
func (f *FakeConnector) Capability() connector.Capability { return f.Cap }
func (f *FakeConnector) IsAvailable() bool                { return f.Available }
func (f *FakeConnector) RequiresAuth() bool               { return f.Auth }

// Calls returns how many times Search ran.
func (f *FakeConnector) Calls() int {
	return int(f.calls.Load())
}

// Search implements connector.Connector.
func (f *FakeConnector) Search(ctx context.Context, _ model.SearchQuery) ([]model.SearchResult, error) {
	f.calls.Add(1)

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Panic != nil {
		panic(f.Panic)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]model.SearchResult, len(f.Results))
	copy(out, f.Results)
	return out, nil
}

// Registry registers each fake under its own platform.
func Registry(fakes ...*FakeConnector) *connector.Registry {
	r := connector.NewRegistry()
	for _, f := range fakes {
		r.Register(f.Name, func(connector.Credentials) (connector.Connector, error) {
			return f, nil
		})
	}
	return r
}
