// Package operations composes the API client, materializer, and provenance
// store into the three end-to-end operations: generate (including edit),
// precision upscale, and creative upscale. Execution is strictly sequential;
// one job is submitted, polled, and saved before the next begins.
package operations

import (
	"fmt"

	"go-krea-generate/internal/api"
	"go-krea-generate/internal/downloader"
	"go-krea-generate/internal/history"
	"go-krea-generate/internal/uploader"
)

// SourceLast requests chaining on the most recent provenance record.
const SourceLast = "last"

// Runner owns the collaborators for one invocation. Progress is optional and
// only affects display.
type Runner struct {
	Client       *api.Client
	Materializer *downloader.Materializer
	Store        *history.Store
	Resolver     *uploader.Resolver
	Progress     api.ProgressFunc
}

// ResolveSource turns a source reference ("last", a URL, or a local path)
// into a fetchable URL. Chaining on "last" reads the provenance store before
// any network activity and fails with history.ErrNoHistory when empty.
func (r *Runner) ResolveSource(ref string) (uploader.Resolved, error) {
	if ref == SourceLast {
		rec, err := r.Store.Latest()
		if err != nil {
			return uploader.Resolved{}, err
		}
		if rec.RemoteURL == "" {
			return uploader.Resolved{}, fmt.Errorf("%w: latest record has no remote URL", history.ErrNoHistory)
		}
		return uploader.Resolved{URL: rec.RemoteURL}, nil
	}
	return r.Resolver.Resolve(ref)
}

func normalizeExt(outputFormat string) string {
	switch outputFormat {
	case "", "jpg", "jpeg":
		return ".jpg"
	default:
		return "." + outputFormat
	}
}
