package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pevans/hellowork/crawler"
	"github.com/pevans/hellowork/sink"
)

// printPageProgress prints one line per crawled page
func printPageProgress(report crawler.PageReport) {
	switch {
	case report.Outcome != crawler.OutcomeSuccess:
		fmt.Printf("  page %-4d ✗ %s: %s\n", report.Page, report.Outcome, truncate(report.Detail, 80))
	case report.Warning != "":
		fmt.Printf("  page %-4d ✓ 0 offers (%s)\n", report.Page, report.Warning)
	default:
		fmt.Printf("  page %-4d ✓ %d offers\n", report.Page, report.Records)
	}
}

// printCrawlSummary prints the totals of a finished crawl
func printCrawlSummary(run sink.RunInfo, result *crawler.Result, stored int) {
	fmt.Println()
	fmt.Printf("✓ Stored %d offers from crawl %s\n", stored, run.CrawlID)
	fmt.Printf("  Pages: %d ok, %d failed\n", result.PagesOK, result.PagesFailed)
	fmt.Printf("  Duration: %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Second))
}

// printOffersTable prints offers in human-readable format
func printOffersTable(rows []sink.Row, total, offset int) {
	if len(rows) == 0 {
		fmt.Println("No offers to display.")
		return
	}

	fmt.Printf("Showing %d-%d of %d offers\n\n", offset+1, offset+len(rows), total)

	for _, row := range rows {
		fmt.Printf("%s\n", truncate(valueOr(row.Title, "(untitled)"), 70))
		fmt.Printf("   %s | %s | Published: %s\n",
			valueOr(row.Company, "Unknown"),
			valueOr(row.Location, "Unknown"),
			formatDate(row.PublishedAt),
		)
		if row.SalaryText != nil {
			fmt.Printf("   Salary: %s\n", *row.SalaryText)
		}
		if row.Description != nil {
			fmt.Printf("   %s\n", truncate(*row.Description, 150))
		}
		fmt.Printf("   Crawl: %s\n", row.CrawlID)
		fmt.Println()
	}
}

// printRunsTable prints crawl runs one per line
func printRunsTable(runs []sink.RunInfo) {
	if len(runs) == 0 {
		fmt.Println("No crawl runs recorded.")
		return
	}

	fmt.Printf("%-36s %-16s %-9s %-6s %-6s %s\n", "ID", "STARTED", "PAGES", "OK", "FAILED", "OFFERS")
	fmt.Println("------------------------------------------------------------------------------------------")

	for _, run := range runs {
		fmt.Printf("%-36s %-16s %-9s %-6d %-6d %d\n",
			run.CrawlID.String(),
			formatTimestamp(run.StartedAt),
			fmt.Sprintf("%d-%d", run.StartPage, run.EndPage),
			run.PagesOK,
			run.PagesFailed,
			run.Records,
		)
	}
}

// printRunDetail prints one crawl run
func printRunDetail(run sink.RunInfo, stored int) {
	fmt.Printf("Crawl:        %s\n", run.CrawlID)
	fmt.Printf("URL template: %s\n", run.URLTemplate)
	fmt.Printf("Pages:        %d-%d (%d ok, %d failed)\n", run.StartPage, run.EndPage, run.PagesOK, run.PagesFailed)
	fmt.Printf("Offers:       %d (%d stored)\n", run.Records, stored)
	fmt.Printf("Started:      %s\n", formatTimestamp(run.StartedAt))
	fmt.Printf("Finished:     %s\n", formatTimestamp(run.FinishedAt))
}

// printJSON prints v as indented JSON
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
