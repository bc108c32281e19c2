package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitInvalidArgs     = 2
	ExitSourceNotAccess = 3
	ExitSourceChanged   = 4
	ExitStreamFailed    = 5
	ExitStorageError    = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "stream":
		return runStream(cmdArgs)
	case "info":
		return runInfo(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: streamjsonl <command> [options]

Commands:
  stream    Stream a JSONL resource to stdout or a file, resumable via checkpoints
  info      Probe a resource and print size, ETag, and range support

Run 'streamjsonl <command> -h' for command-specific help.`)
}
