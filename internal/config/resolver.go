// Package config resolves featuremap configuration from a YAML file,
// environment variables, and CLI flags, with CLI > env > config > default
// precedence. Every resolved value remembers where it came from so
// `featuremap config` can explain itself.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hurttlocker/featuremap/internal/pipeline"
	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is a configuration value plus its provenance.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// Int parses the value as an integer, falling back to def when unset or
// malformed input was impossible to parse at resolve time.
func (v ResolvedValue) Int(def int) int {
	if strings.TrimSpace(v.Value) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.Value))
	if err != nil {
		return def
	}
	return n
}

// Int64 parses the value as an int64, falling back to def.
func (v ResolvedValue) Int64(def int64) int64 {
	if strings.TrimSpace(v.Value) == "" {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v.Value), 10, 64)
	if err != nil {
		return def
	}
	return n
}

// Float parses the value as a float64, falling back to def.
func (v ResolvedValue) Float(def float64) float64 {
	if strings.TrimSpace(v.Value) == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
	if err != nil {
		return def
	}
	return f
}

// List splits a comma-separated value into trimmed items.
func (v ResolvedValue) List() []string {
	if strings.TrimSpace(v.Value) == "" {
		return nil
	}
	parts := strings.Split(v.Value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ResolveOptions carries the CLI-provided overrides into resolution.
type ResolveOptions struct {
	ConfigPath  string
	CLIDBPath   string
	CLIProvider string
	CLIRepos    string // comma-separated
	CLIToken    string
	CLIClusters string
	CLISeed     string
}

// ResolvedConfig is the full resolved configuration surface.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath ResolvedValue `json:"db_path"`

	Provider      ResolvedValue `json:"provider"`
	Repos         ResolvedValue `json:"repos"`
	Token         ResolvedValue `json:"-"`
	Labels        ResolvedValue `json:"labels"`
	MaxPages      ResolvedValue `json:"max_pages"`
	IncludeClosed ResolvedValue `json:"include_closed"`

	Clusters        ResolvedValue `json:"clusters"`
	NgramMin        ResolvedValue `json:"ngram_min"`
	NgramMax        ResolvedValue `json:"ngram_max"`
	ExtraStopWords  ResolvedValue `json:"extra_stop_words"`
	IssueMultiplier ResolvedValue `json:"issue_multiplier"`
	VoteMultiplier  ResolvedValue `json:"vote_multiplier"`
	MaxIterations   ResolvedValue `json:"max_iterations"`
	NumInits        ResolvedValue `json:"num_inits"`
	Seed            ResolvedValue `json:"seed"`
	TopTerms        ResolvedValue `json:"top_terms"`
}

type fileConfig struct {
	DBPath  string `yaml:"db_path"`
	Tracker struct {
		Provider      string   `yaml:"provider"`
		Token         string   `yaml:"token"`
		Repos         []string `yaml:"repos"`
		Labels        []string `yaml:"labels"`
		MaxPages      int      `yaml:"max_pages"`
		IncludeClosed bool     `yaml:"include_closed"`
	} `yaml:"tracker"`
	Pipeline struct {
		Clusters        int      `yaml:"clusters"`
		NgramMin        int      `yaml:"ngram_min"`
		NgramMax        int      `yaml:"ngram_max"`
		ExtraStopWords  []string `yaml:"extra_stop_words"`
		IssueMultiplier *float64 `yaml:"issue_multiplier"`
		VoteMultiplier  *float64 `yaml:"vote_multiplier"`
		MaxIterations   int      `yaml:"max_iterations"`
		NumInits        int      `yaml:"num_inits"`
		Seed            *int64   `yaml:"seed"`
		TopTerms        int      `yaml:"top_terms"`
	} `yaml:"pipeline"`
}

// DefaultConfigPath returns ~/.featuremap/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".featuremap", "config.yaml")
}

// Resolve loads the config file (if present) and applies env and CLI
// overrides in precedence order.
func Resolve(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.Provider, cfg.Tracker.Provider, SourceConfig, path)
		apply(&out.Repos, strings.Join(cfg.Tracker.Repos, ","), SourceConfig, path)
		apply(&out.Token, cfg.Tracker.Token, SourceConfig, path)
		apply(&out.Labels, strings.Join(cfg.Tracker.Labels, ","), SourceConfig, path)
		applyInt(&out.MaxPages, cfg.Tracker.MaxPages, SourceConfig, path)
		if cfg.Tracker.IncludeClosed {
			apply(&out.IncludeClosed, "true", SourceConfig, path)
		}

		applyInt(&out.Clusters, cfg.Pipeline.Clusters, SourceConfig, path)
		applyInt(&out.NgramMin, cfg.Pipeline.NgramMin, SourceConfig, path)
		applyInt(&out.NgramMax, cfg.Pipeline.NgramMax, SourceConfig, path)
		apply(&out.ExtraStopWords, strings.Join(cfg.Pipeline.ExtraStopWords, ","), SourceConfig, path)
		if cfg.Pipeline.IssueMultiplier != nil {
			apply(&out.IssueMultiplier, strconv.FormatFloat(*cfg.Pipeline.IssueMultiplier, 'g', -1, 64), SourceConfig, path)
		}
		if cfg.Pipeline.VoteMultiplier != nil {
			apply(&out.VoteMultiplier, strconv.FormatFloat(*cfg.Pipeline.VoteMultiplier, 'g', -1, 64), SourceConfig, path)
		}
		applyInt(&out.MaxIterations, cfg.Pipeline.MaxIterations, SourceConfig, path)
		applyInt(&out.NumInits, cfg.Pipeline.NumInits, SourceConfig, path)
		if cfg.Pipeline.Seed != nil {
			apply(&out.Seed, strconv.FormatInt(*cfg.Pipeline.Seed, 10), SourceConfig, path)
		}
		applyInt(&out.TopTerms, cfg.Pipeline.TopTerms, SourceConfig, path)
	}

	applyEnv(&out.DBPath, "FEATUREMAP_DB")
	applyEnv(&out.Provider, "FEATUREMAP_PROVIDER")
	applyEnv(&out.Repos, "FEATUREMAP_REPOS")
	applyEnv(&out.Token, "GITHUB_TOKEN")
	applyEnv(&out.Token, "FEATUREMAP_TOKEN")
	applyEnv(&out.Labels, "FEATUREMAP_LABELS")
	applyEnv(&out.Clusters, "FEATUREMAP_CLUSTERS")
	applyEnv(&out.Seed, "FEATUREMAP_SEED")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.Provider, opts.CLIProvider, SourceCLI, "--provider")
	apply(&out.Repos, opts.CLIRepos, SourceCLI, "--repos")
	apply(&out.Token, opts.CLIToken, SourceCLI, "--token")
	apply(&out.Clusters, opts.CLIClusters, SourceCLI, "--clusters")
	apply(&out.Seed, opts.CLISeed, SourceCLI, "--seed")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

// PipelineOptions converts the resolved values into typed pipeline options,
// filling defaults for anything unset.
func (r ResolvedConfig) PipelineOptions() pipeline.Options {
	def := pipeline.DefaultOptions()
	opts := pipeline.Options{
		Clusters:        r.Clusters.Int(def.Clusters),
		NgramMin:        r.NgramMin.Int(def.NgramMin),
		NgramMax:        r.NgramMax.Int(def.NgramMax),
		ExtraStopWords:  def.ExtraStopWords,
		IssueMultiplier: r.IssueMultiplier.Float(def.IssueMultiplier),
		VoteMultiplier:  r.VoteMultiplier.Float(def.VoteMultiplier),
		MaxIterations:   r.MaxIterations.Int(def.MaxIterations),
		NumInits:        r.NumInits.Int(def.NumInits),
		Seed:            r.Seed.Int64(def.Seed),
		TopTerms:        r.TopTerms.Int(def.TopTerms),
	}
	if words := r.ExtraStopWords.List(); words != nil {
		opts.ExtraStopWords = words
	}
	return opts
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyInt(dst *ResolvedValue, raw int, source ValueSource, from string) {
	if raw == 0 {
		return
	}
	*dst = ResolvedValue{Value: strconv.Itoa(raw), Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
