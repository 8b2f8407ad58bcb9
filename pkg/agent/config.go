package agent

import "encoding/json"

// Config points to the data directory and the live-reloaded capture.yml.
// Only the capture configuration is reloaded while running.
type Config struct {
	DataDir       string `json:"dataDir"`
	CaptureConfig string `json:"captureConfig"`
	// Listener names the touch listener type, see touchsvc.NewListenerRegistry.
	Listener       string          `json:"listener"`
	ListenerConfig json.RawMessage `json:"listenerConfig,omitempty"`
	// ListenAddr enables the websocket bridge when set.
	ListenAddr string `json:"listenAddr"`
	Journal    bool   `json:"journal"`
	// Script is a gesture script played into the capture service once it is ready.
	Script string `json:"script,omitempty"`
}
