package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"adaptive-quiz/internal/cli"
	"adaptive-quiz/internal/config"
	"adaptive-quiz/internal/opentdb"
)

func main() {
	config.LoadEnv()
	baseURL := flag.String("opentdb", config.GetEnv("OPENTDB_URL", opentdb.DefaultBaseURL), "OpenTDB API URL")
	timeout := flag.Duration("timeout", config.DefaultHTTPTimeout, "HTTP timeout")
	flag.Parse()

	source := opentdb.NewClientWithBaseURL(*baseURL, &http.Client{Timeout: *timeout})
	if err := cli.Run(context.Background(), os.Stdin, os.Stdout, source); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
