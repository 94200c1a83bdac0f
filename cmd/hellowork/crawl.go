package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pevans/hellowork/browser"
	"github.com/pevans/hellowork/config"
	"github.com/pevans/hellowork/crawler"
	"github.com/pevans/hellowork/offers"
	"github.com/pevans/hellowork/pacing"
	"github.com/pevans/hellowork/sink"
)

func handleCrawl(settings *config.Settings, args []string) {
	fs := flag.NewFlagSet("crawl", flag.ExitOnError)
	start := fs.Int("start", settings.StartPage, "First page to crawl ("+config.EnvStartPage+")")
	end := fs.Int("end", settings.EndPage, "Last page to crawl, inclusive ("+config.EnvEndPage+")")
	urlTemplate := fs.String("url", settings.URLTemplate, "Search URL with {page} placeholder ("+config.EnvURLTemplate+")")
	timeout := fs.Duration("timeout", settings.WaitTimeout, "Wait for the offer list per page ("+config.EnvWaitTimeout+")")
	provider := fs.String("provider", settings.Provider, "DOM provider: chromedp, rod or http ("+config.EnvProvider+")")
	headless := fs.Bool("headless", settings.Headless, "Run the browser headless ("+config.EnvHeadless+")")
	dbPath := fs.String("db", settings.DatabasePath, "Path to offers database ("+config.EnvDatabaseDSN+")")
	archiveDir := fs.String("archive", settings.ArchiveDir, "Directory for JSON run archives ("+config.EnvArchiveDir+")")
	noPacing := fs.Bool("no-pacing", false, "Disable scrolling and delays between pages")
	verbose := fs.Bool("verbose", false, "Log every page fetch")
	fs.Parse(args)

	settings.StartPage = *start
	settings.EndPage = *end
	settings.URLTemplate = *urlTemplate
	settings.WaitTimeout = *timeout
	settings.Provider = *provider
	settings.Headless = *headless
	settings.DatabasePath = *dbPath
	settings.ArchiveDir = *archiveDir

	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if settings.StartPage > settings.EndPage {
		fmt.Fprintf(os.Stderr, "Warning: start page %d is after end page %d, nothing to crawl\n",
			settings.StartPage, settings.EndPage)
	}

	// Open the stores first so a bad path fails before the browser starts
	store, err := sink.NewOfferStore(settings.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open offer store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	stores := []sink.Store{store}
	if settings.ArchiveDir != "" {
		archive, err := sink.NewArchive(settings.ArchiveDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open archive: %v\n", err)
			os.Exit(1)
		}
		stores = append(stores, archive)
	}
	if settings.ElasticEnabled() {
		es, err := sink.NewElasticStore(settings.Elastic)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open Elasticsearch store: %v\n", err)
			os.Exit(1)
		}
		stores = append(stores, es)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(&levelFilter{w: os.Stderr, verbose: *verbose}, "", log.LstdFlags)

	dom, err := browser.Open(ctx, settings.BrowserOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start %s provider: %v\n", settings.Provider, err)
		os.Exit(1)
	}

	cfg := settings.CrawlerConfig()
	cfg.Logger = logger
	if *noPacing {
		cfg.Pacing = pacing.Disabled()
	} else {
		cfg.Pacing = pacing.NewPolicy(&settings.Pacing, nil)
	}
	cfg.OnPage = func(report crawler.PageReport, _ []offers.Record) {
		printPageProgress(report)
	}

	run := sink.NewRunInfo(settings.URLTemplate, settings.StartPage, settings.EndPage)
	fmt.Printf("Crawl %s: pages %d-%d via %s\n", run.CrawlID, run.StartPage, run.EndPage, settings.Provider)

	result, crawlErr := crawler.NewDriver(dom, cfg).Run(ctx, settings.StartPage, settings.EndPage)
	if err := dom.Close(); err != nil {
		logger.Printf("WARN: Failed to close %s provider: %v", settings.Provider, err)
	}

	run.PagesOK = result.PagesOK
	run.PagesFailed = result.PagesFailed
	run.StartedAt = result.StartedAt
	run.FinishedAt = result.FinishedAt

	// Partial results of an interrupted crawl are still stored
	flushCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rows, err := sink.NewSink(sink.Multi(stores...)).Flush(flushCtx, run, result.Records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printCrawlSummary(run, result, len(rows))

	if crawlErr != nil {
		fmt.Fprintf(os.Stderr, "Crawl interrupted: %v\n", crawlErr)
		os.Exit(1)
	}
}
