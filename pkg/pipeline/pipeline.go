// Package pipeline fans work out across target platforms. Each platform's
// pipeline is independent: inputs are read-only, outputs are per-platform
// paths, so the only shared state is the failure count.
package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/packtier/packtier/pkg/errors"
	"github.com/packtier/packtier/pkg/logging"
	"github.com/packtier/packtier/pkg/platform"
)

// ForEachPlatform runs fn once per platform, one goroutine each, and waits
// for all of them. A failed platform is logged and counted without aborting
// its siblings; the call reports an error when any platform failed. There is
// no mid-run cancellation.
func ForEachPlatform(platforms []platform.Platform, fn func(platform.Platform) error) error {
	logger := logging.GetLogger("pipeline")

	var failures atomic.Uint32
	var wg sync.WaitGroup
	for _, p := range platforms {
		wg.Add(1)
		go func(p platform.Platform) {
			defer wg.Done()
			if err := fn(p); err != nil {
				logger.Error().Err(err).Str("platform", string(p)).Msg("Platform pipeline failed")
				failures.Add(1)
			}
		}(p)
	}
	wg.Wait()

	if n := failures.Load(); n > 0 {
		return errors.Newf(errors.ErrInternal, "%d of %d platform pipelines failed", n, len(platforms))
	}
	return nil
}
