package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hurttlocker/featuremap/internal/config"
)

func runConfig(args []string) error {
	resolve := config.ResolveOptions{}
	asJSON := false

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			i++
			resolve.ConfigPath = args[i]
		case strings.HasPrefix(args[i], "--config="):
			resolve.ConfigPath = strings.TrimPrefix(args[i], "--config=")
		case args[i] == "--json":
			asJSON = true
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		default:
			return fmt.Errorf("unexpected argument: %s", args[i])
		}
	}

	cfg, err := config.Resolve(resolve)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	fmt.Printf("Config file: %s\n\n", cfg.ConfigPath)
	fmt.Printf("%-18s  %-30s  %s\n", "SETTING", "VALUE", "SOURCE")
	printValue("db_path", cfg.DBPath)
	printValue("provider", cfg.Provider)
	printValue("repos", cfg.Repos)
	printValue("labels", cfg.Labels)
	printValue("token", maskToken(cfg.Token))
	printValue("clusters", cfg.Clusters)
	printValue("seed", cfg.Seed)
	printValue("ngram_min", cfg.NgramMin)
	printValue("ngram_max", cfg.NgramMax)
	printValue("issue_multiplier", cfg.IssueMultiplier)
	printValue("vote_multiplier", cfg.VoteMultiplier)
	printValue("max_iterations", cfg.MaxIterations)
	printValue("num_inits", cfg.NumInits)
	printValue("top_terms", cfg.TopTerms)
	return nil
}

func printValue(name string, v config.ResolvedValue) {
	value := v.Value
	if value == "" {
		value = "(default)"
	}
	source := string(v.Source)
	if source == "" {
		source = "default"
	}
	if v.From != "" {
		source = fmt.Sprintf("%s (%s)", source, v.From)
	}
	fmt.Printf("%-18s  %-30s  %s\n", name, value, source)
}

func maskToken(v config.ResolvedValue) config.ResolvedValue {
	if v.Value == "" {
		return v
	}
	masked := v
	if len(masked.Value) > 8 {
		masked.Value = masked.Value[:4] + "..." + masked.Value[len(masked.Value)-4:]
	} else {
		masked.Value = "***"
	}
	return masked
}
