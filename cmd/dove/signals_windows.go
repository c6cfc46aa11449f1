//go:build windows

package main

import (
	"context"

	"github.com/dovenav/dove/pkg/backdrop"
)

// notifySwapSignal is a no-op on Windows, which has no user signals. The
// websocket "next" command and the global hotkey remain available.
func notifySwapSignal(ctx context.Context, engine *backdrop.Engine) {}
