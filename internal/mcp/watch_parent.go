package mcp

import (
	"context"
	"os"
	"time"

	"chronicler/internal/logging"
)

// parentPollInterval is how often the watchdog checks the parent PID.
var parentPollInterval = 2 * time.Second

// WatchParent monitors for parent process death in a background
// goroutine. MCP clients spawn the server as a child and talk to it over
// stdio; when the parent PID changes the client is gone, so cancelFn is
// called to shut the server down instead of leaving a zombie behind.
//
// IMPORTANT: this must NOT read from stdin. The SDK's StdioTransport
// owns stdin exclusively, and stealing bytes here would corrupt the
// JSON-RPC stream.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	log := logging.New("watchdog")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(parentPollInterval):
				if os.Getppid() != ppid {
					log.Warn("parent process died, initiating shutdown", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
