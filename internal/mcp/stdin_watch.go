package mcp

import (
	"context"
	"os"
	"time"

	"bunraku/internal/logging"
)

// WatchParent polls for parent process death in a background goroutine
// and calls cancelFn when the parent PID changes, so a server whose
// client went away shuts down instead of lingering.
//
// It must never read stdin: the SDK's stdio transport owns that stream
// exclusively, and stealing bytes from it would corrupt the JSON-RPC
// framing. Watching the parent PID is the side channel that needs no
// reads at all.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	log := logging.New("mcp")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					log.Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
