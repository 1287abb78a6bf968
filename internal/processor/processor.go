package processor

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

type RunOptions struct {
	// Workers bounds how many images are decoded at once. Zero means one per CPU.
	Workers int
	Logger  *zap.Logger
}

// Run processes every job and returns exactly one Result per job, in
// submission order. A failing job never stops the batch. Cancelling ctx stops
// dispatch between jobs: in-flight jobs finish, the rest are recorded as
// Cancelled and Run returns ErrCancelled alongside the summary.
func Run(ctx context.Context, jobs []Job, opts RunOptions, updates chan<- ProgressUpdate) (Summary, error) {
	summary := Summary{Total: len(jobs)}

	for i, job := range jobs {
		if job.Index != i {
			return summary, fmt.Errorf("%w: job %d has index %d", ErrInvalidOptions, i, job.Index)
		}
		if err := job.Options.Validate(); err != nil {
			return summary, fmt.Errorf("job %d (%s): %w", job.Index, job.Display, err)
		}
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	slots := make([]Result, len(jobs))
	filled := make([]bool, len(jobs))

	jobCh := make(chan Job)
	results := make(chan Result)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobCh, results)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		completed := 0
		for res := range results {
			completed++
			slots[res.Index] = res
			filled[res.Index] = true
			logResult(log, res)
			if updates != nil {
				updates <- ProgressUpdate{Completed: completed, Total: len(jobs), Result: res}
			}
		}
	}()

dispatch:
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobCh <- job:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobCh)

	wg.Wait()
	close(results)
	<-collectorDone

	for i, job := range jobs {
		if !filled[i] {
			slots[i] = Result{
				Index:   job.Index,
				Path:    job.Path,
				Display: job.Display,
				Err:     jobErr(KindCancelled, ErrCancelled),
			}
		}
		res := slots[i]
		switch {
		case res.OK():
			summary.Succeeded++
		case res.Err.Kind == KindCancelled:
			summary.Failed++
			summary.Cancelled++
		default:
			summary.Failed++
		}
		if res.MetadataDegraded {
			summary.MetadataDegraded++
		}
	}
	summary.Results = slots

	log.Info("batch finished",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("cancelled", summary.Cancelled),
		zap.Int("metadata_degraded", summary.MetadataDegraded),
	)

	if summary.Cancelled > 0 {
		return summary, ErrCancelled
	}
	return summary, nil
}

// worker checks for cancellation only between jobs; a job that has started
// always runs to completion. Skipped jobs are filled in by Run.
func worker(ctx context.Context, jobs <-chan Job, results chan<- Result) {
	for job := range jobs {
		if ctx.Err() != nil {
			continue
		}
		results <- Process(job)
	}
}

func logResult(log *zap.Logger, res Result) {
	if !res.OK() {
		log.Warn("resize failed",
			zap.String("source", res.Display),
			zap.String("kind", string(res.Err.Kind)),
			zap.Error(res.Err.Err),
		)
		return
	}

	fields := []zap.Field{
		zap.String("source", res.Display),
		zap.String("output", res.Output),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
	}
	if res.Clamped {
		log.Warn("size clamped to at least one pixel", fields...)
	}
	if len(res.Notes) > 0 {
		log.Debug("metadata", append(fields, zap.Strings("notes", res.Notes))...)
	}
	log.Debug("resized", fields...)
}
