package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "mine":
		err = runMine(os.Args[2:])
	case "top":
		err = runTop(os.Args[2:])
	case "runs":
		err = runRuns(os.Args[2:])
	case "config":
		err = runConfig(os.Args[2:])
	case "serve-mcp":
		err = runServeMCP(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("featuremap %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`featuremap %s — mine feature requests into a ranked build-next list

Usage:
  featuremap <command> [arguments]

Commands:
  mine                Fetch requests, cluster them, and rank the clusters
  top                 Print the ranking of the latest mining run
  runs                List recorded mining runs
  config              Print the resolved configuration and value sources
  serve-mcp           Serve ranked clusters over the Model Context Protocol
  version             Print version

Mine Flags:
  --repos a/b,c/d     Repositories to mine (comma-separated owner/repo)
  --clusters N        Number of clusters (default 50)
  --seed N            Clustering seed (default 1)
  --token T           Tracker API token (or GITHUB_TOKEN)
  --cached            Skip fetching; reuse the cached issue corpus
  --json              Emit the ranking as JSON
  --limit N           Rows to print (default 20)

Flags:
  --config <path>     Config file (default ~/.featuremap/config.yaml)
  --db <path>         Database file (default ~/.featuremap/featuremap.db)
  -h, --help          Show this help message
  -v, --version       Print version
`, version)
}
