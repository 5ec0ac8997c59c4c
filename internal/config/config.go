// Package config loads the mljob project configuration.
//
// Configuration lives in an mljob.jsonc file at the project root. The file
// uses JSONC (JSON with Comments), so this package strips comments with
// github.com/tidwall/jsonc before parsing with the standard encoding/json
// library.
//
// Registry, repository, tag and toolkit version can also come from the
// process environment (MLJOB_REGISTRY, MLJOB_REPOSITORY, MLJOB_TAG,
// MLJOB_VERSION); environment values override the file. Everything else
// has a built-in default, so a missing mljob.jsonc is not an error.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/mljob/internal/model"
)

// DefaultFileName is the configuration file name probed at the project root.
const DefaultFileName = "mljob.jsonc"

// Environment variable names recognized as overrides. These mirror the
// variables the deployment scripts read, namespaced under MLJOB_.
const (
	EnvRegistry   = "MLJOB_REGISTRY"
	EnvRepository = "MLJOB_REPOSITORY"
	EnvTag        = "MLJOB_TAG"
	EnvVersion    = "MLJOB_VERSION"
)

// Config holds all settings for both the train and image commands.
// Fields absent from mljob.jsonc keep their defaults; unknown fields in
// the file are silently ignored.
type Config struct {
	// Registry is the container registry host (e.g. "nvcr.io").
	Registry string `json:"registry,omitempty"`

	// Repository is the image repository path within the registry.
	Repository string `json:"repository,omitempty"`

	// Tag is the image tag. Defaults to "latest".
	Tag string `json:"tag,omitempty"`

	// Version is the toolkit version, passed to the image build as the
	// VERSION build arg when set.
	Version string `json:"version,omitempty"`

	// Dockerfile is the path to the Dockerfile, relative to the project
	// root. Defaults to "docker/Dockerfile".
	Dockerfile string `json:"dockerfile,omitempty"`

	// Context is the Docker build context directory. Defaults to ".".
	Context string `json:"context,omitempty"`

	// BuildArgs are additional build-time variables passed to the image
	// build via --build-arg.
	BuildArgs map[string]string `json:"buildArgs,omitempty"`

	// WheelCommand is the packaging command executed by the wheel step
	// before the image build. Defaults to a setup.py bdist_wheel call.
	WheelCommand []string `json:"wheelCommand,omitempty"`

	// Launcher is the downstream launch program for train. Defaults to
	// "mpirun".
	Launcher string `json:"launcher,omitempty"`

	// LauncherArgs are fixed arguments placed before the process-count
	// flag in the downstream argv (e.g. "--allow-run-as-root").
	LauncherArgs []string `json:"launcherArgs,omitempty"`

	// Entrypoint is the wrapped training command the launcher executes,
	// e.g. ["python", "train.py"]. Pass-through arguments are appended
	// after it.
	Entrypoint []string `json:"entrypoint,omitempty"`

	// RunArgs are extra arguments for the interactive image run
	// (GPU access, ulimits, shm size and the like).
	RunArgs []string `json:"runArgs,omitempty"`

	// Mounts are volume specs ("host:container[:mode]") bind-mounted
	// into the interactive image run.
	Mounts []string `json:"mounts,omitempty"`
}

// Default returns a Config populated with built-in defaults. Load starts
// from this and layers the file and environment on top.
func Default() *Config {
	return &Config{
		Registry:     "nvcr.io",
		Repository:   "nvidia/tao/tao-toolkit",
		Tag:          "latest",
		Dockerfile:   filepath.Join("docker", "Dockerfile"),
		Context:      ".",
		WheelCommand: []string{"python", "setup.py", "bdist_wheel"},
		Launcher:     "mpirun",
		LauncherArgs: []string{"--allow-run-as-root", "-bind-to", "none", "-map-by", "slot"},
	}
}

// Load reads mljob.jsonc from dir (when present), applies environment
// overrides, and returns the effective configuration.
//
// A missing file yields the defaults plus environment overrides. A file
// that exists but cannot be parsed is a configuration error — it is
// never silently ignored.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, DefaultFileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No project file: defaults plus environment.
	case err != nil:
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to read %s", path),
			err,
		)
	default:
		// jsonc.ToJSON strips comments and trailing commas, producing
		// valid JSON for the standard decoder.
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("failed to parse %s", path),
				err,
			)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid configuration", err)
	}
	return cfg, nil
}

// applyEnv overlays the recognized environment variables onto the config.
// Empty environment values are treated as unset.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRegistry); v != "" {
		c.Registry = v
	}
	if v := os.Getenv(EnvRepository); v != "" {
		c.Repository = v
	}
	if v := os.Getenv(EnvTag); v != "" {
		c.Tag = v
	}
	if v := os.Getenv(EnvVersion); v != "" {
		c.Version = v
	}
}

// validate checks the fields every dispatch path depends on.
func (c *Config) validate() error {
	if c.Repository == "" {
		return fmt.Errorf("repository must not be empty")
	}
	if c.Tag == "" {
		return fmt.Errorf("tag must not be empty")
	}
	if c.Launcher == "" {
		return fmt.Errorf("launcher must not be empty")
	}
	return nil
}

// ImageRef returns the fully qualified image reference,
// "registry/repository:tag". An empty registry yields a local
// "repository:tag" reference.
func (c *Config) ImageRef() string {
	if c.Registry == "" {
		return fmt.Sprintf("%s:%s", c.Repository, c.Tag)
	}
	return fmt.Sprintf("%s/%s:%s", c.Registry, c.Repository, c.Tag)
}

// EffectiveBuildArgs returns the build args map with the VERSION arg
// injected when a toolkit version is configured. The stored map is not
// mutated.
func (c *Config) EffectiveBuildArgs() map[string]string {
	args := make(map[string]string, len(c.BuildArgs)+1)
	for k, v := range c.BuildArgs {
		args[k] = v
	}
	if c.Version != "" {
		args["VERSION"] = c.Version
	}
	return args
}
