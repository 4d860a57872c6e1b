// Command walinspect reads a write-ahead log and prints or validates its
// records. It never writes records to the log (a missing path is created
// as an empty file, as wal.Open always does); replay of the log into a
// catalog happens in-process at server startup.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"vecdb-go/internal/apierr"
	"vecdb-go/internal/wal"
)

func main() {
	path := flag.String("wal", "", "Path to the WAL file (required)")
	validateOnly := flag.Bool("validate", false, "Only report whether the log replays cleanly; print a one-line summary instead of the records")
	flag.Parse()

	if *path == "" {
		fmt.Println("Usage: walinspect -wal <file> [-validate]")
		fmt.Println("\nDump or validate a write-ahead log without mutating it.")
		flag.PrintDefaults()
		os.Exit(1)
	}

	w, err := wal.Open(*path)
	if err != nil {
		fmt.Printf("Error: failed to open WAL: %v\n", err)
		os.Exit(1)
	}

	records, replayErr := w.Replay()
	if *validateOnly {
		if replayErr != nil {
			fmt.Printf("INVALID: %d records replayed cleanly before: %v\n", len(records), replayErr)
			os.Exit(1)
		}
		fmt.Printf("OK: %d records replay cleanly\n", len(records))
		return
	}

	for i, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			fmt.Printf("Error: failed to encode record %d: %v\n", i, err)
			os.Exit(1)
		}
		fmt.Println(string(line))
	}

	if replayErr != nil {
		fmt.Fprintf(os.Stderr, "warning: stopped after %d records: %v\n", len(records), replayErr)
		if apierr.CodeOf(replayErr) == apierr.CorruptWal {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
