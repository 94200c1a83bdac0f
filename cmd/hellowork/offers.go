package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pevans/hellowork/config"
	"github.com/pevans/hellowork/sink"
)

func handleOffersCommand(action string, settings *config.Settings, args []string) {
	switch action {
	case "list":
		handleOffersList(settings, args)
	case "export":
		handleOffersExport(settings, args)
	case "help", "--help", "-h":
		printOffersUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown offers command: %s\n\n", action)
		printOffersUsage()
		os.Exit(1)
	}
}

func printOffersUsage() {
	fmt.Println("hellowork offers - List or export stored offers")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hellowork offers <action> [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  list       List stored offers")
	fmt.Println("  export     Write stored offers as CSV")
	fmt.Println("  help       Show this help message")
}

func handleOffersList(settings *config.Settings, args []string) {
	fs := flag.NewFlagSet("offers list", flag.ExitOnError)
	dbPath := fs.String("db", settings.DatabasePath, "Path to offers database ("+config.EnvDatabaseDSN+")")
	crawl := fs.String("crawl", "", "Only offers from this crawl run")
	limit := fs.Int("limit", 20, "Maximum number of offers to display")
	offset := fs.Int("offset", 0, "Number of offers to skip")
	format := fs.String("format", "table", "Output format: table, json")
	fs.Parse(args)

	crawlID := parseCrawlFlag(*crawl)

	store := openOfferStore(*dbPath)
	defer store.Close()

	total, err := store.CountOffers(crawlID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rows, err := store.ListOffers(sink.OfferFilter{CrawlID: crawlID, Limit: *limit, Offset: *offset})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch *format {
	case "table":
		printOffersTable(rows, total, *offset)
	case "json":
		printJSON(map[string]any{"offres": rows, "total": total})
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format: %s\n", *format)
		os.Exit(1)
	}
}

func handleOffersExport(settings *config.Settings, args []string) {
	fs := flag.NewFlagSet("offers export", flag.ExitOnError)
	dbPath := fs.String("db", settings.DatabasePath, "Path to offers database ("+config.EnvDatabaseDSN+")")
	crawl := fs.String("crawl", "", "Only offers from this crawl run")
	out := fs.String("out", "", "CSV file to write, or - for standard output")
	fs.Parse(args)

	if *out == "" {
		fmt.Fprintf(os.Stderr, "Error: --out is required\n")
		fs.Usage()
		os.Exit(1)
	}

	crawlID := parseCrawlFlag(*crawl)

	store := openOfferStore(*dbPath)
	defer store.Close()

	rows, err := store.ListOffers(sink.OfferFilter{CrawlID: crawlID})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *out == "-" {
		if err := sink.WriteCSV(os.Stdout, rows); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// 0600: owner-only read/write
	f, err := os.OpenFile(*out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create %s: %v\n", *out, err)
		os.Exit(1)
	}

	if err := sink.WriteCSV(f, rows); err != nil {
		f.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to close %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("✓ Exported %d offers to %s\n", len(rows), *out)
}

// parseCrawlFlag parses an optional crawl ID, exiting on a malformed one.
func parseCrawlFlag(value string) *uuid.UUID {
	if value == "" {
		return nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid crawl ID: %v\n", err)
		os.Exit(1)
	}
	return &id
}

func openOfferStore(dbPath string) *sink.OfferStore {
	store, err := sink.NewOfferStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open offer store: %v\n", err)
		os.Exit(1)
	}
	return store
}
