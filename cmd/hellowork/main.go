package main

import (
	"fmt"
	"os"

	"github.com/pevans/hellowork/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]
	if subcommand == "help" || subcommand == "--help" || subcommand == "-h" {
		printUsage()
		return
	}

	// Flags parsed by each subcommand take precedence over these
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	switch subcommand {
	case "crawl":
		handleCrawl(settings, os.Args[2:])
	case "offers":
		if len(os.Args) < 3 {
			printOffersUsage()
			os.Exit(1)
		}
		handleOffersCommand(os.Args[2], settings, os.Args[3:])
	case "runs":
		action := "list"
		args := os.Args[2:]
		if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
			action, args = args[0], args[1:]
		}
		handleRunsCommand(action, settings, args)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("hellowork - HelloWork job listing crawler")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hellowork <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  crawl      Crawl a range of result pages and store the offers")
	fmt.Println("  offers     List or export stored offers")
	fmt.Println("  runs       List past crawl runs")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Configuration is read from ~/.hellowork/config.yaml, then .env and the")
	fmt.Println("environment, then command-line flags.")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Printf("  %-32s %s\n", config.EnvURLTemplate, "Search URL with {page} placeholder")
	fmt.Printf("  %-32s %s\n", config.EnvStartPage, "First page (default: 1)")
	fmt.Printf("  %-32s %s\n", config.EnvEndPage, "Last page (default: 50)")
	fmt.Printf("  %-32s %s\n", config.EnvWaitTimeout, "Wait for the offer list (default: 10s)")
	fmt.Printf("  %-32s %s\n", config.EnvProvider, "chromedp, rod or http (default: chromedp)")
	fmt.Printf("  %-32s %s\n", config.EnvHeadless, "Run the browser headless (default: true)")
	fmt.Printf("  %-32s %s\n", config.EnvUserAgent, "User agent sent to the site")
	fmt.Printf("  %-32s %s\n", config.EnvBrowserPath, "Browser binary to launch")
	fmt.Printf("  %-32s %s\n", config.EnvRequestsPerSecond, "HTTP provider request cap (default: 1)")
	fmt.Printf("  %-32s %s\n", config.EnvDatabaseDSN, "Path to offers database (default: hellowork.db)")
	fmt.Printf("  %-32s %s\n", config.EnvArchiveDir, "Directory for JSON run archives")
	fmt.Printf("  %-32s %s\n", config.EnvElasticAddresses, "Comma-separated Elasticsearch URLs")
	fmt.Printf("  %-32s %s\n", config.EnvElasticIndex, "Elasticsearch index (default: offres)")
}
