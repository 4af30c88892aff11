package converter

import (
	"context"
	"sync"

	"github.com/zurustar/sampleconv/pkg/logger"
)

// Job is one source instrument of a batch: the format, the input files and
// where the outputs should land.
type Job struct {
	Name    string
	Format  Format
	Sources []Source

	Target    Format
	OutputDir string
}

// Result reports one finished job. Err is set when the job failed; the rest
// of the batch is unaffected.
type Result struct {
	Job     Job
	Outputs []OutputFile
	Err     error
}

// Convert runs the parse, map and emit pipeline for a single job. Bank
// formats may fan one job out into several output instruments.
func Convert(job Job, opts Options) ([]OutputFile, error) {
	instruments, err := Read(job.Format, job.Sources, opts)
	if err != nil {
		return nil, err
	}
	var outputs []OutputFile
	for _, m := range instruments {
		files, err := Write(job.Target, m, opts)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, files...)
	}
	return outputs, nil
}

// RunBatch converts jobs concurrently on the given number of workers. Each
// job is self-contained; cancellation is checked between jobs, never inside
// a file's pipeline. Results arrive in completion order.
func RunBatch(ctx context.Context, jobs []Job, opts Options, workers int) []Result {
	if workers < 1 {
		workers = 1
	}
	log := logger.GetLogger()

	jobCh := make(chan Job)
	resultCh := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				outputs, err := Convert(job, opts)
				if err != nil {
					log.Error("conversion failed", "job", job.Name, "error", err)
				} else {
					log.Info("converted", "job", job.Name, "outputs", len(outputs))
				}
				resultCh <- Result{Job: job, Outputs: outputs, Err: err}
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for i, job := range jobs {
			select {
			case <-ctx.Done():
				log.Warn("batch cancelled", "remaining", len(jobs)-i)
				return
			case jobCh <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var results []Result
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}
