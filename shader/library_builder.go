package shader

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-wgsl/profiler"
)

// LibraryBuilderOption is a functional option for configuring a Library during creation.
type LibraryBuilderOption func(*library)

// WithWorkers sets the maximum number of concurrent reflection workers.
//
// Parameters:
//   - n: the worker count, values below 1 are ignored
//
// Returns:
//   - LibraryBuilderOption: a function that applies the workers option
func WithWorkers(n int) LibraryBuilderOption {
	return func(l *library) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithQueueSize sets the capacity of the worker pool's task queue.
//
// Parameters:
//   - n: the queue capacity, values below 1 are ignored
//
// Returns:
//   - LibraryBuilderOption: a function that applies the queue size option
func WithQueueSize(n int) LibraryBuilderOption {
	return func(l *library) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithIdleTimeout sets how long an idle worker waits for a task before exiting.
//
// Parameters:
//   - d: the idle timeout
//
// Returns:
//   - LibraryBuilderOption: a function that applies the idle timeout option
func WithIdleTimeout(d time.Duration) LibraryBuilderOption {
	return func(l *library) {
		if d > 0 {
			l.idleTimeout = d
		}
	}
}

// WithLibraryIncludes sets the include registry passed to every shader.
//
// Parameters:
//   - includes: the include registry
//
// Returns:
//   - LibraryBuilderOption: a function that applies the includes option
func WithLibraryIncludes(includes Includes) LibraryBuilderOption {
	return func(l *library) {
		l.includes = includes
	}
}

// WithLibraryLogger sets the logger passed to every shader.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - LibraryBuilderOption: a function that applies the logger option
func WithLibraryLogger(logger *slog.Logger) LibraryBuilderOption {
	return func(l *library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithProfiler records every reflected shader on p.
//
// Parameters:
//   - p: the profiler to tick
//
// Returns:
//   - LibraryBuilderOption: a function that applies the profiler option
func WithProfiler(p *profiler.Profiler) LibraryBuilderOption {
	return func(l *library) {
		l.profiler = p
	}
}
