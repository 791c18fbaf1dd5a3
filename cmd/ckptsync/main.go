// Command ckptsync manages checkpoints in a remote store and replays
// recorded training metrics through the best-checkpoint policy.
//
// Usage:
//
//	ckptsync [-config file] <command> [args]
//
// Commands:
//
//	find <name>                 list remote items whose name contains name
//	upload <path> [folder]      upload a local file
//	download <name> <path>      download the first file matching name
//	delete <name>               delete the first item matching name
//	history <run-id>            print the recorded decisions of a run
//	replay <metrics.jsonl>      feed recorded epochs through the policy
//	board <logdir>              launch TensorBoard over a log directory
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ckptsync:", err)
		if ckerr.Categorize(err) == ckerr.CategoryMisuse {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
