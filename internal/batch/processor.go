package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-image-augmentor/internal/logger"
	"go-image-augmentor/internal/observer"
	"go-image-augmentor/internal/storage"
	"go-image-augmentor/internal/technique"
)

// ErrOutputConflict is reported for an input whose output path was already
// claimed by an earlier input in the same run
var ErrOutputConflict = errors.New("output path conflict")

// Result describes the outcome for one input file
type Result struct {
	Input    string        `json:"input"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Failed reports whether the file could not be augmented
func (r Result) Failed() bool {
	return r.Err != nil
}

// Processor applies one technique to many files on disk
type Processor struct {
	technique technique.Technique
	store     *storage.FileStore
	publisher observer.Subject
	workers   int
	suffix    string
}

// NewProcessor creates a processor. Outputs are named <stem>_<suffix><ext>;
// an empty suffix defaults to the technique name.
func NewProcessor(t technique.Technique, store *storage.FileStore, publisher observer.Subject, workers int, suffix string) *Processor {
	if suffix == "" {
		suffix = t.Name()
	}
	return &Processor{
		technique: t,
		store:     store,
		publisher: publisher,
		workers:   workers,
		suffix:    suffix,
	}
}

// Run processes every input and returns one Result per input, in input order.
// A failing file does not stop the others. Files not yet started when ctx is
// canceled are reported with ctx's error. When two inputs map to the same
// output path, only the first is processed.
func (p *Processor) Run(ctx context.Context, inputs []string) []Result {
	results := make([]Result, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	pool := NewWorkerPool(p.workers)
	pool.Start()
	defer pool.Close()

	outputs := make([]string, len(inputs))
	claimed := make(map[string]string, len(inputs))
	var mu sync.Mutex
	for i, input := range inputs {
		i, input := i, input // per-iteration copies for the closure below (go 1.21 loop semantics)
		output, err := p.store.OutputPath(input, p.suffix)
		if err == nil {
			if first, taken := claimed[output]; taken {
				err = fmt.Errorf("%w: %s is already written for %s", ErrOutputConflict, output, first)
			} else {
				claimed[output] = input
			}
		}
		if err != nil {
			logger.WithError(err).WithField("input", input).Warn("Skipping file")
			results[i] = Result{Input: input, Err: err}
			continue
		}
		outputs[i] = output

		pool.Submit(func() {
			res := p.processOne(ctx, input, outputs[i])
			mu.Lock()
			results[i] = res
			mu.Unlock()
		})
	}
	pool.Wait()

	stats := pool.GetStats()
	logger.WithFields(logrus.Fields{
		"technique": p.technique.Name(),
		"files":     len(inputs),
		"completed": stats.CompletedJobs,
		"workers":   stats.Workers,
	}).Info("Batch augmentation finished")

	return results
}

func (p *Processor) processOne(ctx context.Context, input, output string) Result {
	start := time.Now()
	res := Result{Input: input}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	p.publish(ctx, observer.AugmentationEvent{
		EventType: observer.AugmentationStarted,
		Source:    input,
		Technique: p.technique.Name(),
	})

	err := p.augment(input, output)
	if err == nil {
		res.Output = output
	}
	res.Err = err
	res.Duration = time.Since(start)

	event := observer.AugmentationEvent{
		EventType:      observer.AugmentationCompleted,
		Source:         input,
		Technique:      p.technique.Name(),
		ProcessingTime: res.Duration,
		Success:        err == nil,
	}
	if err != nil {
		event.EventType = observer.AugmentationFailed
		event.ErrorMessage = err.Error()
		logger.WithError(err).WithField("input", input).Warn("Failed to augment file")
	}
	p.publish(ctx, event)

	return res
}

func (p *Processor) augment(input, output string) error {
	img, err := p.store.Open(input)
	if err != nil {
		return err
	}

	out, err := p.technique.Apply(img)
	if err != nil {
		return err
	}

	return p.store.Save(out, output)
}

func (p *Processor) publish(ctx context.Context, event observer.AugmentationEvent) {
	if p.publisher == nil {
		return
	}
	event.Timestamp = time.Now()
	p.publisher.NotifyObservers(ctx, event)
}
