// Package loader fetches the dictionaries named by the manifest on the worker
// pool and records them in the dictionary store.
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitabwire/util"

	"github.com/pitabwire/localize/dictionary"
	"github.com/pitabwire/localize/fetch"
	"github.com/pitabwire/localize/manifest"
	"github.com/pitabwire/localize/workerpool"
)

// Loader runs dictionary fetches as worker pool jobs.
type Loader struct {
	pool    workerpool.Manager
	fetcher fetch.Fetcher
	store   *dictionary.Store
	retries int
}

// Option configures a Loader.
type Option func(*Loader)

// WithRetries sets how often a failing fetch is retried. Missing documents
// are never retried.
func WithRetries(retries int) Option {
	return func(l *Loader) {
		if retries >= 0 {
			l.retries = retries
		}
	}
}

// New creates a Loader.
func New(pool workerpool.Manager, fetcher fetch.Fetcher, store *dictionary.Store, opts ...Option) *Loader {
	l := &Loader{
		pool:    pool,
		fetcher: fetcher,
		store:   store,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load starts one fetch per source and returns the barrier that opens once
// all of them have completed. Failed loads are logged and leave their package
// without a dictionary; they never hold the barrier shut.
func (l *Loader) Load(ctx context.Context, sources []manifest.Source) *Barrier {
	ids := make([]string, 0, len(sources))
	for _, src := range sources {
		ids = append(ids, src.Package)
	}
	l.store.Expect(ids...)

	barrier := NewBarrier(len(sources))
	for _, src := range sources {
		job, err := l.submit(ctx, src)
		if err != nil {
			l.fail(ctx, src, err)
			barrier.Done()
			continue
		}

		go func() {
			<-job.Done()
			l.complete(ctx, src, job)
			barrier.Done()
		}()
	}
	return barrier
}

// LoadOne fetches a single dictionary and waits for it.
func (l *Loader) LoadOne(ctx context.Context, src manifest.Source) error {
	l.store.Expect(src.Package)

	job, err := l.submit(ctx, src)
	if err != nil {
		l.fail(ctx, src, err)
		return err
	}

	select {
	case <-job.Done():
		return l.complete(ctx, src, job)
	case <-ctx.Done():
		// The job still completes into the store.
		go func() {
			<-job.Done()
			_ = l.complete(context.WithoutCancel(ctx), src, job)
		}()
		return ctx.Err()
	}
}

func (l *Loader) submit(ctx context.Context, src manifest.Source) (*workerpool.Job[dictionary.Content], error) {
	job := workerpool.NewJob(src.Package,
		func(jobCtx context.Context) (dictionary.Content, error) {
			return l.fetcher.Fetch(jobCtx, src.URL)
		},
		workerpool.WithRetries(l.retries),
		workerpool.WithPermanentError(isPermanent),
	)

	if err := workerpool.SubmitJob(ctx, l.pool, job); err != nil {
		return nil, fmt.Errorf("submitting load of %q: %w", src.Package, err)
	}
	return job, nil
}

func (l *Loader) complete(ctx context.Context, src manifest.Source, job *workerpool.Job[dictionary.Content]) error {
	content, err := job.Result()
	if err != nil {
		l.fail(ctx, src, err)
		return err
	}

	l.store.Register(src.Package, content)
	util.Log(ctx).
		WithField("package", src.Package).
		WithField("url", src.URL).
		WithField("attempts", job.Runs()).
		Debug("dictionary loaded")
	return nil
}

func (l *Loader) fail(ctx context.Context, src manifest.Source, err error) {
	l.store.Fail(src.Package, err)
	util.Log(ctx).
		WithError(err).
		WithField("package", src.Package).
		WithField("url", src.URL).
		Error("could not load dictionary")
}

func isPermanent(err error) bool {
	return errors.Is(err, fetch.ErrNotFound) ||
		errors.Is(err, dictionary.ErrEmptyDocument) ||
		errors.Is(err, dictionary.ErrUnsupportedFormat)
}
