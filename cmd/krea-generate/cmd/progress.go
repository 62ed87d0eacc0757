package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/gosuri/uilive"

	"go-krea-generate/internal/api"
)

// startProgress returns a poll-tick callback that rewrites a single terminal
// line, and an idempotent stop func the caller must invoke once the job
// settles.
func startProgress(label string) (api.ProgressFunc, func()) {
	writer := uilive.New()
	writer.Start()
	progress := func(status string, elapsed time.Duration) {
		fmt.Fprintf(writer, "%s: %s (%.0fs elapsed)\n", label, status, elapsed.Seconds())
	}
	var once sync.Once
	return progress, func() { once.Do(writer.Stop) }
}
