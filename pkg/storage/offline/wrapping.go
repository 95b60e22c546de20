// Package offline serves pages from a local copy while keeping it in sync
// with the network storage.
package offline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/storage"
)

// PageUpdatedFunc is called when a background refresh replaced the offline
// copy of a page with a newer version.
type PageUpdatedFunc func(page *storage.Page)

// WrappingStorage is a read-through cache in front of a network storage.
//
// Reads are served from the offline store when possible and refreshed in
// the background. Writes and deletes go to the network first. There is no
// eviction.
type WrappingStorage struct {
	network storage.Storage
	offline storage.Storage
	logger  hclog.Logger

	onPageUpdated PageUpdatedFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ storage.Storage = (*WrappingStorage)(nil)

// Option configures a WrappingStorage.
type Option func(*WrappingStorage)

// WithOnPageUpdated registers fn to be called after a background refresh
// stored a new version of a page.
func WithOnPageUpdated(fn PageUpdatedFunc) Option {
	return func(w *WrappingStorage) {
		w.onPageUpdated = fn
	}
}

// New wraps network with the offline store. Close must be called to stop
// background refreshes.
func New(network, offline storage.Storage, logger hclog.Logger, opts ...Option) *WrappingStorage {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &WrappingStorage{
		network: network,
		offline: offline,
		logger:  logger.Named("offline-storage"),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// GetPage returns the offline copy of ref when there is one, and refreshes
// it in the background. Otherwise the page is fetched from the network and
// stored offline.
func (w *WrappingStorage) GetPage(ctx context.Context, ref *model.DocumentReference) (*storage.Page, error) {
	cached, err := w.offline.GetPage(ctx, ref)
	switch {
	case err == nil:
		w.refresh(ref, cached)
		return cached, nil
	case !errors.Is(err, storage.ErrPageNotFound):
		w.logger.Warn("error reading offline page, falling back to network",
			"reference", ref.String(),
			"error", err,
		)
	}

	page, err := w.network.GetPage(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := w.offline.SavePage(ctx, page); err != nil {
		w.logger.Warn("error saving page offline",
			"reference", ref.String(),
			"error", err,
		)
	}
	return page, nil
}

// SavePage saves page to the network, then offline.
func (w *WrappingStorage) SavePage(ctx context.Context, page *storage.Page) error {
	if err := w.network.SavePage(ctx, page); err != nil {
		return err
	}
	if err := w.offline.SavePage(ctx, page); err != nil {
		return fmt.Errorf("page saved but offline copy failed: %w", err)
	}
	return nil
}

// DeletePage deletes the page of ref from the network, then offline. A page
// that was never stored offline is not an error.
func (w *WrappingStorage) DeletePage(ctx context.Context, ref *model.DocumentReference) error {
	if err := w.network.DeletePage(ctx, ref); err != nil {
		return err
	}
	err := w.offline.DeletePage(ctx, ref)
	if err != nil && !errors.Is(err, storage.ErrPageNotFound) {
		return fmt.Errorf("page deleted but offline copy remains: %w", err)
	}
	return nil
}

// Wait blocks until pending background refreshes are done.
func (w *WrappingStorage) Wait() {
	w.wg.Wait()
}

// Close cancels pending refreshes and waits for them to return.
func (w *WrappingStorage) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	return nil
}

// refresh fetches ref from the network and replaces the offline copy when
// the version changed.
func (w *WrappingStorage) refresh(ref *model.DocumentReference, cached *storage.Page) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()

		page, err := w.network.GetPage(w.ctx, ref)
		if err != nil {
			w.logger.Debug("background refresh failed",
				"reference", ref.String(),
				"error", err,
			)
			return
		}

		if page.Version == cached.Version {
			return
		}

		if err := w.offline.SavePage(w.ctx, page); err != nil {
			w.logger.Warn("error updating offline page",
				"reference", ref.String(),
				"error", err,
			)
			return
		}

		w.logger.Debug("offline page updated",
			"reference", ref.String(),
			"old_version", cached.Version,
			"new_version", page.Version,
		)

		if w.onPageUpdated != nil {
			w.onPageUpdated(page)
		}
	}()
}
