// Command wgslreflect prints the data definitions of WGSL shader files as YAML or JSON.
//
// Usage:
//
//	wgslreflect [-config file.toml] [-format yaml|json] [-workers n] [-profile] files...
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-wgsl/common"
	"github.com/Carmen-Shannon/oxy-wgsl/profiler"
	"github.com/Carmen-Shannon/oxy-wgsl/shader"
	"github.com/Carmen-Shannon/oxy-wgsl/shader/definitions"
	"gopkg.in/yaml.v3"
)

func main() {
	log.SetFlags(0)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "", 0)

	fset := flag.NewFlagSet("wgslreflect", flag.ContinueOnError)
	fset.SetOutput(stderr)
	configPath := fset.String("config", "", "TOML config file")
	format := fset.String("format", "", "output format: yaml or json")
	workers := fset.Int("workers", 0, "number of concurrent reflection workers")
	profile := fset.Bool("profile", false, "log reflection throughput")
	if err := fset.Parse(args); err != nil {
		return 2
	}
	if fset.NArg() == 0 {
		logger.Printf("[wgslreflect] no input files")
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Printf("[wgslreflect] config: %v", err)
		return 2
	}
	cfg.Format = common.Coalesce(*format, cfg.Format)
	cfg.Workers = common.Coalesce(*workers, cfg.Workers)
	cfg.Profile = *profile || cfg.Profile
	if cfg, err = cfg.normalize(); err != nil {
		logger.Printf("[wgslreflect] %v", err)
		return 2
	}

	opts := []shader.LibraryBuilderOption{shader.WithWorkers(cfg.Workers)}
	if cfg.Includes != "" {
		includes, err := shader.IncludesFromFS(os.DirFS(cfg.Includes), ".")
		if err != nil {
			logger.Printf("[wgslreflect] includes: %v", err)
			return 1
		}
		opts = append(opts, shader.WithLibraryIncludes(includes))
	}
	var prof *profiler.Profiler
	if cfg.Profile {
		prof = profiler.NewProfiler(time.Second)
		prof.SetLogger(logger)
		opts = append(opts, shader.WithProfiler(prof))
	}

	paths := make(map[string]string, fset.NArg())
	for _, p := range fset.Args() {
		key := shaderKey(p)
		if _, ok := paths[key]; ok {
			key = p
		}
		paths[key] = p
	}

	loaded, err := shader.NewLibrary(opts...).LoadFiles(paths)
	if prof != nil {
		prof.Flush()
	}
	if err != nil {
		logger.Printf("[wgslreflect] %v", err)
		return 1
	}

	defs := make(map[string]*definitions.ShaderDataDefinitions, len(loaded))
	for key, s := range loaded {
		defs[key] = s.Definitions()
	}
	if err := write(stdout, cfg.Format, defs); err != nil {
		logger.Printf("[wgslreflect] %v", err)
		return 1
	}
	return 0
}

// shaderKey names a shader after its file, without directory or extension.
func shaderKey(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func write(w io.Writer, format string, defs map[string]*definitions.ShaderDataDefinitions) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(defs); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}
