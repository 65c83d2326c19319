// Package scheduler holds admitted tasks in a FIFO pending queue and
// releases them to a fixed-size pool of workers, so that the number of
// tasks in PROCESSING never exceeds the configured concurrency bound.
// The scheduler is an owned instance with an explicit lifecycle:
// created once at process start, started after recovery, and torn down
// on shutdown by draining in-flight workers.
package scheduler
