package main

import (
	"fmt"
	"os"

	"github.com/dvloznov/price-tracker/internal/logger"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "trends":
		runTrends(log)
	case "alerts":
		runAlerts(log)
	case "history":
		runHistory(log)
	case "export":
		runExport(log)
	case "seed":
		runSeed(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Price Tracker CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  trends    Show price trends and rankings for every item")
	fmt.Println("  alerts    Show price changes in recent purchases")
	fmt.Println("  history   Show the purchase history of one item")
	fmt.Println("  export    Write a price report snapshot to GCS")
	fmt.Println("  seed      Load the demo purchase history into Postgres")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nPass -demo to use built-in sample data instead of the configured backend.")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}
