package api

// Message types pushed to clients.
const (
	msgTypeLayerImage   = "layer_image"
	msgTypeLayerVisible = "layer_visible"
	msgTypeTheme        = "theme"
	msgTypeState        = "state"
)

// Message types received from clients.
const (
	msgTypeHello     = "hello"
	msgTypeFadeDone  = "fade_done"
	msgTypeNext      = "next"
	msgTypeConfigure = "configure"
	msgTypePause     = "pause"
)

// layerImageMsg announces new content for one backdrop layer. The URL points
// at this server's /layer/ endpoint; source is where the image originally
// came from.
type layerImageMsg struct {
	Type   string `json:"type"`
	Layer  int    `json:"layer"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// layerVisibleMsg starts a fade on one layer. Clients echo seq back in a
// fade_done message when their transition ends.
type layerVisibleMsg struct {
	Type       string `json:"type"`
	Layer      int    `json:"layer"`
	Visible    bool   `json:"visible"`
	Seq        uint64 `json:"seq"`
	DurationMS int    `json:"duration_ms"`
}

// themeMsg carries the current tone classification and blur radius.
type themeMsg struct {
	Type   string `json:"type"`
	Tone   string `json:"tone"`
	BlurPX int    `json:"blur_px"`
}

// stateMsg replays the full backdrop state to a newly connected client.
type stateMsg struct {
	Type           string       `json:"type"`
	Layers         []layerState `json:"layers"`
	Tone           string       `json:"tone"`
	BlurPX         int          `json:"blur_px"`
	Paused         bool         `json:"paused"`
	FadeDurationMS int          `json:"fade_duration_ms"`
}

type layerState struct {
	Layer   int    `json:"layer"`
	URL     string `json:"url,omitempty"`
	Source  string `json:"source,omitempty"`
	Visible bool   `json:"visible"`
}

// Viewport is the client's reported render size in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// inboundMsg is the envelope for everything a client can send. Optional
// fields are pointers so absent and zero stay distinguishable.
type inboundMsg struct {
	Type            string    `json:"type"`
	Seq             uint64    `json:"seq,omitempty"`
	Viewport        *Viewport `json:"viewport,omitempty"`
	DeviceClass     string    `json:"device_class,omitempty"`
	IntervalSeconds *int      `json:"interval_seconds,omitempty"`
	BlurPX          *int      `json:"blur_px,omitempty"`
	Paused          *bool     `json:"paused,omitempty"`
}
