package shader

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-wgsl/common"
	"github.com/Carmen-Shannon/oxy-wgsl/profiler"
)

// library is the implementation of the Library interface.
type library struct {
	mu      sync.RWMutex
	shaders map[string]Shader

	// pool runs one reflection task per shader. Workers are reused across Load calls.
	pool        worker.DynamicWorkerPool
	workers     int
	queueSize   int
	idleTimeout time.Duration

	includes Includes
	logger   *slog.Logger
	profiler *profiler.Profiler
}

// Library loads and caches many shaders, reflecting them concurrently on a worker pool.
type Library interface {
	// Load reflects every source concurrently and caches the shaders that load. A
	// shader with the same key as a cached one replaces it.
	//
	// Parameters:
	//   - sources: raw WGSL sources keyed by shader key
	//
	// Returns:
	//   - map[string]Shader: the shaders that loaded, keyed by shader key
	//   - error: the joined errors of the shaders that failed, in key order
	Load(sources map[string]string) (map[string]Shader, error)

	// LoadFiles reads and reflects every file concurrently, like Load.
	//
	// Parameters:
	//   - paths: WGSL file paths keyed by shader key
	//
	// Returns:
	//   - map[string]Shader: the shaders that loaded, keyed by shader key
	//   - error: the joined errors of the shaders that failed, in key order
	LoadFiles(paths map[string]string) (map[string]Shader, error)

	// Get retrieves a cached shader.
	//
	// Parameters:
	//   - key: the shader key
	//
	// Returns:
	//   - Shader: the shader, or nil if not loaded
	//   - bool: true if the shader is cached
	Get(key string) (Shader, bool)

	// Keys returns the keys of all cached shaders in sorted order.
	//
	// Returns:
	//   - []string: the cached shader keys
	Keys() []string
}

var _ Library = &library{}

// NewLibrary creates a new Library with all specified options applied.
//
// Parameters:
//   - opts: a variadic list of LibraryBuilderOption functions to configure the library
//
// Returns:
//   - Library: the newly created library
func NewLibrary(opts ...LibraryBuilderOption) Library {
	l := &library{
		shaders:     make(map[string]Shader),
		workers:     max(runtime.NumCPU()-1, 1),
		queueSize:   256,
		idleTimeout: 1 * time.Second,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}

	// Initialize the pool after options so WithWorkers can override the default.
	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, l.idleTimeout)
	return l
}

func (l *library) Load(sources map[string]string) (map[string]Shader, error) {
	return l.load(sources, WithSource)
}

func (l *library) LoadFiles(paths map[string]string) (map[string]Shader, error) {
	return l.load(paths, WithSourceFromPath)
}

type loadResult struct {
	shader Shader
	err    error
}

// load builds one shader per key on the pool. pool.Wait returns once the queue
// drains, before the last tasks finish, so a WaitGroup is the barrier.
func (l *library) load(inputs map[string]string, source func(string) ShaderBuilderOption) (map[string]Shader, error) {
	keys := common.SortedKeys(inputs)
	results := make([]loadResult, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		input := inputs[key]
		l.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				s, err := NewShader(key, source(input), WithIncludes(l.includes), WithLogger(l.logger))
				results[i] = loadResult{shader: s, err: err}
				if l.profiler != nil {
					l.profiler.Tick()
				}
				return s, err
			},
		})
	}
	wg.Wait()

	loaded := make(map[string]Shader, len(keys))
	var errs []error
	for i, key := range keys {
		r := results[i]
		if r.err != nil {
			l.logger.Debug("shader failed to load", "shader", key, "err", r.err)
			errs = append(errs, r.err)
			continue
		}
		loaded[key] = r.shader
	}

	l.mu.Lock()
	for key, s := range loaded {
		l.shaders[key] = s
	}
	l.mu.Unlock()

	return loaded, errors.Join(errs...)
}

func (l *library) Get(key string) (Shader, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.shaders[key]
	return s, ok
}

func (l *library) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return common.SortedKeys(l.shaders)
}
