package main

import (
	"fmt"
	"strings"

	"github.com/hurttlocker/featuremap/internal/config"
	featuremcp "github.com/hurttlocker/featuremap/internal/mcp"
	"github.com/hurttlocker/featuremap/internal/store"
)

func runServeMCP(args []string) error {
	resolve := config.ResolveOptions{}

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			i++
			resolve.ConfigPath = args[i]
		case strings.HasPrefix(args[i], "--config="):
			resolve.ConfigPath = strings.TrimPrefix(args[i], "--config=")
		case args[i] == "--db" && i+1 < len(args):
			i++
			resolve.CLIDBPath = args[i]
		case strings.HasPrefix(args[i], "--db="):
			resolve.CLIDBPath = strings.TrimPrefix(args[i], "--db=")
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

	st, err := store.Open(store.Config{DBPath: cfg.DBPath.Value})
	if err != nil {
		return err
	}
	defer st.Close()

	srv := featuremcp.NewServer(featuremcp.ServerConfig{
		Store:   st,
		Version: version,
	})
	return featuremcp.ServeStdio(srv)
}
