package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestResolveMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Resolve(ResolveOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	opts := cfg.PipelineOptions()
	if opts.Clusters != 50 {
		t.Fatalf("default clusters = %d, want 50", opts.Clusters)
	}
	if opts.NgramMin != 1 || opts.NgramMax != 2 {
		t.Fatalf("default ngram range = (%d,%d), want (1,2)", opts.NgramMin, opts.NgramMax)
	}
	if opts.IssueMultiplier != 1.0 || opts.VoteMultiplier != 1.0 {
		t.Fatalf("default multipliers = %v/%v, want 1/1", opts.IssueMultiplier, opts.VoteMultiplier)
	}
	if opts.MaxIterations != 100 || opts.NumInits != 1 || opts.TopTerms != 10 {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if len(opts.ExtraStopWords) != 2 {
		t.Fatalf("default extra stop words = %v", opts.ExtraStopWords)
	}
}

func TestResolveFromFile(t *testing.T) {
	path := writeConfig(t, `
db_path: /tmp/test.db
tracker:
  provider: github
  repos:
    - acme/widgets
    - acme/gadgets
  labels: [enhancement, idea]
pipeline:
  clusters: 8
  ngram_max: 3
  vote_multiplier: 0.5
  seed: 99
  extra_stop_words: [feature, request, plugin]
`)

	cfg, err := Resolve(ResolveOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if cfg.DBPath.Value != "/tmp/test.db" || cfg.DBPath.Source != SourceConfig {
		t.Fatalf("db_path not resolved from config: %+v", cfg.DBPath)
	}
	repos := cfg.Repos.List()
	if len(repos) != 2 || repos[0] != "acme/widgets" {
		t.Fatalf("repos not resolved: %v", repos)
	}

	opts := cfg.PipelineOptions()
	if opts.Clusters != 8 {
		t.Fatalf("clusters = %d, want 8", opts.Clusters)
	}
	if opts.NgramMax != 3 {
		t.Fatalf("ngram_max = %d, want 3", opts.NgramMax)
	}
	if opts.VoteMultiplier != 0.5 {
		t.Fatalf("vote_multiplier = %v, want 0.5", opts.VoteMultiplier)
	}
	if opts.Seed != 99 {
		t.Fatalf("seed = %d, want 99", opts.Seed)
	}
	if len(opts.ExtraStopWords) != 3 {
		t.Fatalf("extra stop words = %v", opts.ExtraStopWords)
	}
}

func TestResolvePrecedence(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  clusters: 8
  seed: 5
`)
	t.Setenv("FEATUREMAP_CLUSTERS", "12")
	t.Setenv("FEATUREMAP_SEED", "6")

	cfg, err := Resolve(ResolveOptions{ConfigPath: path, CLIClusters: "20"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// CLI beats env beats config.
	if cfg.Clusters.Value != "20" || cfg.Clusters.Source != SourceCLI {
		t.Fatalf("clusters precedence wrong: %+v", cfg.Clusters)
	}
	if cfg.Seed.Value != "6" || cfg.Seed.Source != SourceEnv {
		t.Fatalf("seed precedence wrong: %+v", cfg.Seed)
	}
}

func TestResolveTokenEnvFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("FEATUREMAP_TOKEN", "fm-token")

	cfg, err := Resolve(ResolveOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Token.Value != "fm-token" {
		t.Fatalf("FEATUREMAP_TOKEN should beat GITHUB_TOKEN, got %q", cfg.Token.Value)
	}
}

func TestResolveMalformedYAML(t *testing.T) {
	path := writeConfig(t, "tracker: [not: a map")
	if _, err := Resolve(ResolveOptions{ConfigPath: path}); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
