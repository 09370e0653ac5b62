package update

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RefreshInterval is the minimum spacing between remote version checks.
const RefreshInterval = time.Hour

// ShouldRefresh reports whether a remote version check is due.
//
// The threshold is lastChecked plus RefreshInterval (or the zero time when
// never checked) and it is compared against the start of the current
// calendar day, not against now. A check made earlier today therefore never
// triggers another one until the day has rolled over past the threshold.
func ShouldRefresh(now, lastChecked time.Time) bool {
	var threshold time.Time
	if !lastChecked.IsZero() {
		threshold = lastChecked.Add(RefreshInterval)
	}
	return startOfDay(now).After(threshold)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Oracle tracks the latest available SDK version and throttles remote checks.
//
// Fetches run asynchronously. Each one carries a sequence number and only the
// most recently issued fetch may commit its result, so a slow older request
// never overwrites a newer answer.
type Oracle struct {
	source   TagSource
	store    CacheStore
	logger   *zap.Logger
	now      func() time.Time
	onUpdate func(latest string)

	mu     sync.Mutex
	cache  CheckCache
	loaded bool
	seq    uint64
	wg     sync.WaitGroup
}

// NewOracle creates an oracle. store may be nil for an in-memory cache.
func NewOracle(source TagSource, store CacheStore, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{
		source: source,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source (for testing).
func (o *Oracle) WithClock(now func() time.Time) *Oracle {
	o.now = now
	return o
}

// OnUpdate registers a callback invoked after a fetch result is committed.
func (o *Oracle) OnUpdate(fn func(latest string)) *Oracle {
	o.onUpdate = fn
	return o
}

// Latest returns the cached latest version, or UnknownVersion.
func (o *Oracle) Latest() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loadLocked()
	return DisplayVersion(o.cache.LatestVersion)
}

// LastChecked returns when the cache was last written by a fetch.
func (o *Oracle) LastChecked() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loadLocked()
	return o.cache.LastChecked
}

// Refresh starts a remote check when one is due and returns the cached
// value immediately. Call Wait to block until the check has completed.
func (o *Oracle) Refresh(ctx context.Context) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loadLocked()

	issuedAt := o.now()
	if !ShouldRefresh(issuedAt, o.cache.LastChecked) {
		o.logger.Debug("version check skipped",
			zap.Time("last_checked", o.cache.LastChecked),
			zap.String("latest", o.cache.LatestVersion))
		return DisplayVersion(o.cache.LatestVersion)
	}

	o.seq++
	seq := o.seq
	o.wg.Add(1)
	go o.fetch(ctx, seq, issuedAt)

	return DisplayVersion(o.cache.LatestVersion)
}

// Wait blocks until every in-flight fetch has finished.
func (o *Oracle) Wait() {
	o.wg.Wait()
}

func (o *Oracle) fetch(ctx context.Context, seq uint64, issuedAt time.Time) {
	defer o.wg.Done()

	tag, err := o.source.LatestTag(ctx)

	o.mu.Lock()
	if seq != o.seq {
		o.mu.Unlock()
		o.logger.Debug("stale version check dropped", zap.Uint64("seq", seq))
		return
	}

	if err != nil {
		o.logger.Warn("failed to fetch latest SDK version", zap.Error(err))
		if IsUnknown(o.cache.LatestVersion) {
			o.cache.LatestVersion = UnknownVersion
		}
	} else if IsUnknown(tag) {
		o.cache.LatestVersion = UnknownVersion
	} else {
		o.cache.LatestVersion = NormalizeVersion(tag)
	}
	o.cache.LastChecked = issuedAt
	snapshot := o.cache

	if o.store != nil {
		if err := o.store.SaveCheckCache(snapshot); err != nil {
			o.logger.Warn("failed to persist version check", zap.Error(err))
		}
	}
	o.mu.Unlock()

	o.logger.Debug("latest SDK version updated", zap.String("latest", snapshot.LatestVersion))
	if o.onUpdate != nil {
		o.onUpdate(snapshot.LatestVersion)
	}
}

// loadLocked reads the persisted cache once. Callers hold o.mu.
func (o *Oracle) loadLocked() {
	if o.loaded {
		return
	}
	o.loaded = true
	if o.store == nil {
		return
	}
	cache, err := o.store.LoadCheckCache()
	if err != nil {
		o.logger.Warn("failed to load version check cache", zap.Error(err))
		return
	}
	o.cache = cache
}
