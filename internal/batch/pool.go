package batch

import (
	"context"
	"runtime"
	"sync"

	"github.com/embassy-aviation/mailbot/internal/core"
)

// Outcome pairs an email with its classification result. The slice returned
// by Classify preserves the input order.
type Outcome struct {
	Email  *core.Email
	Result *core.ClassificationResult
}

// Classify fans classification of a batch out across a worker pool.
// Classification is CPU-bound string matching over an immutable rule table,
// so the pool is sized to available CPU, not to I/O concurrency, and the
// workers need no coordination. Cancellation is handled here; the engine
// itself has no suspension points. Emails not reached before cancellation
// have a nil Result.
func Classify(ctx context.Context, classifier core.Classifier, emails []*core.Email, workers int) []Outcome {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(emails) {
		workers = len(emails)
	}

	outcomes := make([]Outcome, len(emails))
	for i, email := range emails {
		outcomes[i] = Outcome{Email: email}
	}
	if len(emails) == 0 {
		return outcomes
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				outcomes[i].Result = classifier.Classify(emails[i])
			}
		}()
	}

feed:
	for i := range emails {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	return outcomes
}
