// Package concurrency generalizes the worker-pool idiom from
// internal/world/deep_scan.go (semaphore-channel + sync.WaitGroup) into
// the four-stage producer → dispatcher → worker pool → collector fabric
// spec.md §4.9 describes, reused by both the traversal and bruteforce
// stages.
package concurrency

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Fabric configures channel capacities and worker count for one run of
// the pipeline. Channel capacities default to 1024, as spec.md §4.9
// mandates for every stage.
type Fabric[J any, R any] struct {
	Concurrency  int
	IngestCap    int
	WorkerCap    int
	CollectorCap int
	DiscoveryCap int
}

// NewFabric returns a Fabric with the spec-mandated channel capacities.
func NewFabric[J any, R any](concurrency int) Fabric[J, R] {
	if concurrency <= 0 {
		concurrency = 1
	}
	return Fabric[J, R]{
		Concurrency:  concurrency,
		IngestCap:    1024,
		WorkerCap:    1024,
		CollectorCap: 1024,
		DiscoveryCap: 1024,
	}
}

// Worker processes one job, which may emit zero, one, or several results
// (a traversal job can match at more than one depth under the greedy
// strategy) plus any number of discoveries.
type Worker[J any, R any] func(ctx context.Context, job J) (results []R, discoveries []string)

// Run executes one fabric end to end: a rate-limited producer enumerates
// jobs onto an ingest channel, a dispatcher round-robins them onto
// per-worker channels, Concurrency workers run worker, and a collector +
// discovery-dedup pair drain the results. Shutdown proceeds producer →
// dispatcher → workers → collectors, matching spec.md §4.9/§5.
func (f Fabric[J, R]) Run(ctx context.Context, jobs []J, limiter *rate.Limiter, worker Worker[J, R]) (results []R, discoveries []string) {
	ingest := make(chan J, f.IngestCap)
	workerChans := make([]chan J, f.Concurrency)
	for i := range workerChans {
		workerChans[i] = make(chan J, f.WorkerCap)
	}
	collector := make(chan R, f.CollectorCap)
	discoveryCh := make(chan string, f.DiscoveryCap)

	var producerWG sync.WaitGroup
	producerWG.Add(1)
	go func() {
		defer producerWG.Done()
		defer close(ingest)
		for _, j := range jobs {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}
			select {
			case ingest <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	var dispatcherWG sync.WaitGroup
	dispatcherWG.Add(1)
	go func() {
		defer dispatcherWG.Done()
		defer func() {
			for _, c := range workerChans {
				close(c)
			}
		}()
		i := 0
		for j := range ingest {
			select {
			case workerChans[i%f.Concurrency] <- j:
				i++
			case <-ctx.Done():
				return
			}
		}
	}()

	var workersWG sync.WaitGroup
	for _, wc := range workerChans {
		workersWG.Add(1)
		go func(ch chan J) {
			defer workersWG.Done()
			for j := range ch {
				rs, disc := worker(ctx, j)
				for _, r := range rs {
					select {
					case collector <- r:
					case <-ctx.Done():
						return
					}
				}
				for _, d := range disc {
					select {
					case discoveryCh <- d:
					case <-ctx.Done():
						return
					}
				}
			}
		}(wc)
	}

	var collectorWG sync.WaitGroup
	collectorWG.Add(1)
	go func() {
		defer collectorWG.Done()
		for r := range collector {
			results = append(results, r)
		}
	}()

	seen := map[string]bool{}
	var discoveryWG sync.WaitGroup
	discoveryWG.Add(1)
	go func() {
		defer discoveryWG.Done()
		for d := range discoveryCh {
			if !seen[d] {
				seen[d] = true
				discoveries = append(discoveries, d)
			}
		}
	}()

	producerWG.Wait()
	dispatcherWG.Wait()
	workersWG.Wait()
	close(collector)
	close(discoveryCh)
	collectorWG.Wait()
	discoveryWG.Wait()

	return results, discoveries
}
