// Package config provides the configuration loader for press.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the development server address.
const (
	EnvHost = "PRESS_HOST"
	EnvPort = "PRESS_PORT"
)

const supportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration file at path and returns the validated configuration.
// A missing file yields the default layout. Relative paths in the file are
// resolved against the file's directory.
func (l *Loader) Load(configPath string) (*domain.Config, error) {
	var pf Pressfile

	//nolint:gosec // path is provided by user
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "file", configPath)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "file", configPath)
	}

	if pf.Version != "" && pf.Version != supportedVersion {
		l.Logger.Warn(fmt.Sprintf("unknown config version %q in %s, reading as version %s",
			pf.Version, configPath, supportedVersion))
	}

	baseDir := filepath.Dir(configPath)
	env, err := readEnv(filepath.Join(baseDir, domain.EnvFileName))
	if err != nil {
		return nil, err
	}

	return l.build(&pf, baseDir, env)
}

func (l *Loader) build(pf *Pressfile, baseDir string, env func(string) string) (*domain.Config, error) {
	entries := domain.DefaultPathEntries()
	for name, dto := range pf.Paths {
		c := domain.Category(name)
		def, ok := entries[c]
		if !ok {
			return nil, zerr.With(domain.ErrUnknownCategory, "category", name)
		}
		if dto.Src != "" {
			def.SourceGlob = dto.Src
		}
		if dto.Dest != "" {
			def.DestDir = dto.Dest
		}
		entries[c] = def
	}

	for c, e := range entries {
		if !doublestar.ValidatePattern(e.SourceGlob) {
			err := zerr.With(domain.ErrInvalidGlob, "category", string(c))
			return nil, zerr.With(err, "pattern", e.SourceGlob)
		}
		e.SourceGlob = joinGlob(baseDir, e.SourceGlob)
		e.DestDir = joinPath(baseDir, e.DestDir)
		entries[c] = e
	}

	sourceRoot := joinPath(baseDir, orDefault(pf.SourceRoot, domain.DefaultSourceRoot))
	destRoot := joinPath(baseDir, orDefault(pf.DestRoot, domain.DefaultDestRoot))

	paths, err := domain.NewPathConfig(sourceRoot, destRoot, entries)
	if err != nil {
		return nil, err
	}

	cfg := &domain.Config{
		Paths:      paths,
		ServeRoot:  paths.DestRoot(),
		BundleName: orDefault(pf.Bundle, domain.DefaultBundleName),
		Styles: domain.StyleConfig{
			Command:       pf.Styles.Command,
			Compatibility: orDefault(pf.Styles.Compatibility, domain.DefaultCompatibility),
		},
		Images: domain.ImageConfig{
			JPEGQuality: pf.Images.JPEGQuality,
			Optimizers:  make(map[string][]string, len(pf.Images.Optimizers)),
		},
		Server: domain.ServerConfig{
			Host:       orDefault(pf.Server.Host, domain.DefaultHost),
			Port:       pf.Server.Port,
			LiveReload: true,
		},
	}

	if pf.ServeRoot != "" {
		cfg.ServeRoot = joinPath(baseDir, pf.ServeRoot)
	}
	if strings.ContainsAny(cfg.BundleName, `/\`) {
		return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "bundle"), "value", cfg.BundleName)
	}
	if len(cfg.Styles.Command) == 0 {
		cfg.Styles.Command = []string{"sass"}
	}

	switch q := cfg.Images.JPEGQuality; {
	case q == 0:
		cfg.Images.JPEGQuality = domain.DefaultJPEGQuality
	case q < 1 || q > 100:
		return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "images.jpeg_quality"), "value", q)
	}

	for ext, argv := range pf.Images.Optimizers {
		if len(argv) == 0 {
			return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "images.optimizers"), "extension", ext)
		}
		key := strings.ToLower(ext)
		if !strings.HasPrefix(key, ".") {
			key = "." + key
		}
		cfg.Images.Optimizers[key] = argv
	}

	if pf.Server.LiveReload != nil {
		cfg.Server.LiveReload = *pf.Server.LiveReload
	}
	if host := env(EnvHost); host != "" {
		cfg.Server.Host = host
	}
	if raw := env(EnvPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidConfig.Error()), "env", EnvPort)
		}
		cfg.Server.Port = port
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = domain.DefaultPort
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "server.port"), "value", cfg.Server.Port)
	}

	if pf.Watch.Debounce != "" {
		d, err := time.ParseDuration(pf.Watch.Debounce)
		if err != nil || d < 0 {
			return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "watch.debounce"), "value", pf.Watch.Debounce)
		}
		cfg.Watch.Debounce = d
	}

	return cfg, nil
}

// readEnv returns a lookup that prefers the process environment over the
// values of the .env file at path. A missing file is not an error.
func readEnv(envPath string) (func(string) string, error) {
	fileEnv, err := godotenv.Read(envPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrEnvFileLoadFailed.Error()), "file", envPath)
		}
		fileEnv = nil
	}

	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileEnv[key]
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func joinPath(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func joinGlob(base, pattern string) string {
	if path.IsAbs(pattern) || filepath.IsAbs(pattern) {
		return pattern
	}
	return path.Join(filepath.ToSlash(base), pattern)
}
