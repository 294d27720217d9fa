package ingest

import (
	"context"
	"sync"
)

// FetchJob is one remote file queued for download.
type FetchJob struct {
	Seq  int
	File RemoteFile
}

// FetchResult holds the outcome of one FetchJob.
type FetchResult struct {
	Seq     int
	File    RemoteFile
	Content string
	Err     error
}

// ParallelFetch downloads queued files with a fixed pool of workers. A failed
// download is reported in its FetchResult and never stops the other workers.
// Results arrive in completion order; OrderedCollect restores queue order.
// workers <= 0 means one worker.
func ParallelFetch(ctx context.Context, src Source, jobs <-chan FetchJob, workers int) <-chan FetchResult {
	if workers <= 0 {
		workers = 1
	}

	results := make(chan FetchResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for job := range jobs {
				content, err := src.FetchText(ctx, job.File.URL)
				if err != nil {
					err = &FetchError{Name: job.File.Name, URL: job.File.URL, Err: err}
				}
				results <- FetchResult{
					Seq:     job.Seq,
					File:    job.File,
					Content: content,
					Err:     err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// QueueFiles returns a closed channel holding one job per file, numbered in order.
func QueueFiles(files []RemoteFile) <-chan FetchJob {
	jobs := make(chan FetchJob, len(files))
	for i, f := range files {
		jobs <- FetchJob{Seq: i, File: f}
	}
	close(jobs)
	return jobs
}

// OrderedCollect hands results to fn in queue order, holding early arrivals
// until their predecessors are in. It returns once results is closed, or with
// fn's first error after draining the channel.
func OrderedCollect(results <-chan FetchResult, fn func(FetchResult) error) error {
	pending := make(map[int]FetchResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// keep workers from blocking on send
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
