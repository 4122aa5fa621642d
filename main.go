package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"podpub/cmd"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  podpub publish <episode-dir> [--steps audio,transcript,show_notes,youtube,rss] [--force]")
	fmt.Println("  podpub serve")
	fmt.Println("  podpub feed")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "publish":
		flags := flag.NewFlagSet("publish", flag.ExitOnError)
		stepsFlag := flags.String("steps", "", "comma-separated subset of steps to run")
		force := flags.Bool("force", false, "re-run steps even if their artifacts exist")
		if err := flags.Parse(os.Args[2:]); err != nil {
			os.Exit(1)
		}
		if flags.NArg() < 1 {
			usage()
			os.Exit(1)
		}

		var steps []string
		if *stepsFlag != "" {
			steps = strings.Split(*stepsFlag, ",")
		}

		if err := cmd.Publish(flags.Arg(0), steps, *force); err != nil {
			log.Fatalf("Publish failed: %v", err)
		}
	case "serve":
		if err := cmd.Serve(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case "feed":
		if err := cmd.Feed(); err != nil {
			log.Fatalf("Feed generation failed: %v", err)
		}
	default:
		fmt.Println("Unknown command:", command)
		usage()
		os.Exit(1)
	}
}
