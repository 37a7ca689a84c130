package aggregate

import (
	"context"
	"errors"

	"github.com/chebyrash/promise"
)

type Aggregate struct {
	ctx     context.Context
	cancel  context.CancelFunc
	plugins []Plugin
}

var _ Plugin = &Aggregate{}

func New(plugins []Plugin) *Aggregate {
	ctx, cancel := context.WithCancel(context.Background())
	return &Aggregate{
		ctx,
		cancel,
		plugins,
	}
}

func (a *Aggregate) Run() error {
	if err := a.Init(); err != nil {
		return errors.Join(err, a.Stop())
	}

	if _, err := a.Start().Await(a.ctx); err != nil {
		return errors.Join(err, a.Stop())
	}

	return a.Stop()
}

// Shutdown cancels the context Run awaits on, letting Run proceed to
// stopping the plugins.
func (a *Aggregate) Shutdown() {
	a.cancel()
}

// Init implements Plugin.
func (a *Aggregate) Init() error {
	for _, p := range a.plugins {
		if err := p.Init(); err != nil {
			return err
		}
	}
	return nil
}

// Start implements Plugin.
func (a *Aggregate) Start() *promise.Promise[any] {
	promises := make([]*promise.Promise[any], len(a.plugins))
	for i, p := range a.plugins {
		promises[i] = p.Start()
	}
	return promise.Then(
		promise.All(a.ctx, promises...),
		a.ctx,
		func([]any) (any, error) {
			return nil, nil
		},
	)
}

// Stop implements Plugin. Plugins are stopped in reverse order so that
// dependants go down before their dependencies.
func (a *Aggregate) Stop() error {
	var errs []error
	for i := len(a.plugins) - 1; i >= 0; i-- {
		if err := a.plugins[i].Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
