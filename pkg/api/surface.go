package api

import (
	"context"

	"github.com/dovenav/dove/pkg/backdrop"
)

// LayerSurface is one of the two stacked backdrop layers in the browser,
// driven over the websocket hub. SetImage publishes the image bytes under
// /layer/ and announces the new URL; SetVisible broadcasts a fade command
// and returns a channel closed when a client confirms that fade sequence.
// With no clients connected the channel is closed immediately so the
// engine never stalls while running headless.
type LayerSurface struct {
	id     int
	server *Server
}

var _ backdrop.Surface = (*LayerSurface)(nil)

func (l *LayerSurface) SetImage(ctx context.Context, res *backdrop.LoadResult) error {
	return l.server.stageImage(ctx, l.id, res)
}

func (l *LayerSurface) SetVisible(visible bool) <-chan struct{} {
	return l.server.fadeLayer(l.id, visible)
}
