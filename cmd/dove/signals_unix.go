//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dovenav/dove/pkg/backdrop"
	"github.com/dovenav/dove/util/log"
)

// notifySwapSignal requests the next backdrop on SIGUSR1, so scripts can
// trigger a swap without talking to the websocket.
func notifySwapSignal(ctx context.Context, engine *backdrop.Engine) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				log.Debugf("SIGUSR1 received, requesting next backdrop")
				engine.RequestSwap()
			}
		}
	}()
}
