// Command sizer runs the sizing loop for a single design case file and
// prints the converged result as JSON. Useful for batch scripting without
// the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aeroconcept/sizer/internal/config"
	"github.com/aeroconcept/sizer/internal/sizing"
	"github.com/aeroconcept/sizer/internal/tradestudy"
	"github.com/aeroconcept/sizer/pkg/logger"
)

func main() {
	casePath := flag.String("case", "", "Path to design case TOML file (required)")
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	verbose := flag.Bool("verbose", false, "Log iteration progress")
	flag.Parse()

	if *casePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: sizer -case <design-case.toml> [-config <config.toml>] [-verbose]")
		os.Exit(1)
	}

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dc, err := config.LoadDesignCase(*casePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading design case: %v\n", err)
		os.Exit(1)
	}

	ac, m, err := tradestudy.BuildCase(dc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid design case: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sizer := sizing.New(cfg.Sizing, log)
	result, err := sizer.Design(ctx, ac, m, func(p sizing.Progress) {
		if *verbose {
			fmt.Fprintf(os.Stderr, "iteration %d: W_to=%.0f lbf  T/W=%.3f  W/S=%.1f\n",
				p.Iteration, p.TakeoffWeight, p.TToW, p.WToS)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sizing failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
		os.Exit(1)
	}
}
