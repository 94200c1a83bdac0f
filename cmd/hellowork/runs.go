package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pevans/hellowork/config"
	"github.com/pevans/hellowork/sink"
)

func handleRunsCommand(action string, settings *config.Settings, args []string) {
	switch action {
	case "list":
		handleRunsList(settings, args)
	case "show":
		handleRunsShow(settings, args)
	case "archive":
		handleRunsArchive(settings, args)
	case "help", "--help", "-h":
		printRunsUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown runs command: %s\n\n", action)
		printRunsUsage()
		os.Exit(1)
	}
}

func printRunsUsage() {
	fmt.Println("hellowork runs - Inspect crawl runs")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hellowork runs [action] [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  list       List crawl runs, most recent first (default)")
	fmt.Println("  show       Show one crawl run")
	fmt.Println("  archive    List runs in the JSON archive")
	fmt.Println("  help       Show this help message")
}

func handleRunsList(settings *config.Settings, args []string) {
	fs := flag.NewFlagSet("runs list", flag.ExitOnError)
	dbPath := fs.String("db", settings.DatabasePath, "Path to offers database ("+config.EnvDatabaseDSN+")")
	format := fs.String("format", "table", "Output format: table, json")
	fs.Parse(args)

	store := openOfferStore(*dbPath)
	defer store.Close()

	runs, err := store.ListRuns()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch *format {
	case "table":
		printRunsTable(runs)
	case "json":
		printJSON(map[string]any{"runs": runs, "total": len(runs)})
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format: %s\n", *format)
		os.Exit(1)
	}
}

func handleRunsShow(settings *config.Settings, args []string) {
	fs := flag.NewFlagSet("runs show", flag.ExitOnError)
	dbPath := fs.String("db", settings.DatabasePath, "Path to offers database ("+config.EnvDatabaseDSN+")")
	archiveDir := fs.String("archive", settings.ArchiveDir, "Directory for JSON run archives ("+config.EnvArchiveDir+")")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: crawl ID is required\n")
		fmt.Fprintf(os.Stderr, "Usage: hellowork runs show <crawl-id>\n")
		os.Exit(1)
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid crawl ID: %v\n", err)
		os.Exit(1)
	}

	store := openOfferStore(*dbPath)
	defer store.Close()

	run, err := store.GetRun(id)
	if errors.Is(err, sink.ErrRunNotFound) {
		fmt.Fprintf(os.Stderr, "Error: crawl run not found: %s\n", id)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stored, err := store.CountOffers(&id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printRunDetail(*run, stored)

	if *archiveDir == "" {
		return
	}

	archive, err := sink.NewArchive(*archiveDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open archive: %v\n", err)
		os.Exit(1)
	}

	archived, err := archive.Get(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	if archived == nil {
		fmt.Println("Archive:      not archived")
		return
	}
	fmt.Printf("Archive:      %d rows\n", len(archived.Rows))
}

func handleRunsArchive(settings *config.Settings, args []string) {
	fs := flag.NewFlagSet("runs archive", flag.ExitOnError)
	archiveDir := fs.String("archive", settings.ArchiveDir, "Directory for JSON run archives ("+config.EnvArchiveDir+")")
	fs.Parse(args)

	if *archiveDir == "" {
		fmt.Fprintf(os.Stderr, "Error: --archive or %s is required\n", config.EnvArchiveDir)
		os.Exit(1)
	}

	archive, err := sink.NewArchive(*archiveDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open archive: %v\n", err)
		os.Exit(1)
	}

	result, err := archive.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Report any partial failures after displaying results
	defer func() {
		if len(result.Errors) > 0 {
			fmt.Fprintf(os.Stderr, "\nWarning: %d file(s) could not be read:\n", len(result.Errors))
			for _, readErr := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %s\n", readErr.Error())
			}
		}
	}()

	runs := make([]sink.RunInfo, 0, len(result.Runs))
	for i := len(result.Runs) - 1; i >= 0; i-- {
		runs = append(runs, result.Runs[i].Run)
	}
	printRunsTable(runs)
}
