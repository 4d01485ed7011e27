// File: api/schemas/session.go
package schemas

// Variant selects the browser engine backing a session.
type Variant string

const (
	VariantChromium Variant = "chromium"
	VariantFirefox  Variant = "firefox"
	VariantWebkit   Variant = "webkit"
)

// Valid reports whether v names a supported engine variant.
func (v Variant) Valid() bool {
	switch v {
	case VariantChromium, VariantFirefox, VariantWebkit:
		return true
	}
	return false
}

// SessionStatus tracks a session through its persisted lifecycle.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionArchived  SessionStatus = "archived"
)

// Viewport is the page dimensions in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SessionSpec is the caller-supplied shape of a new session.
type SessionSpec struct {
	Browser       Variant  `json:"browser,omitempty"`
	Headless      *bool    `json:"headless,omitempty"`
	ViewportW     int      `json:"viewport_width,omitempty"`
	ViewportH     int      `json:"viewport_height,omitempty"`
	RecordVideo   bool     `json:"record_video,omitempty"`
	EnableTracing bool     `json:"enable_tracing,omitempty"`
}

// AssetKind partitions recorded artifacts. Each kind has its own gapless
// sequence counter and file extension.
type AssetKind string

const (
	AssetScreenshot AssetKind = "screenshots"
	AssetVideo      AssetKind = "videos"
	AssetTrace      AssetKind = "traces"
)

// Ext returns the fixed file extension for the kind.
func (k AssetKind) Ext() string {
	switch k {
	case AssetVideo:
		return "webm"
	case AssetTrace:
		return "zip"
	default:
		return "png"
	}
}

// AssetEntry is one recorded artifact as it appears in metadata.json.
type AssetEntry struct {
	Filename    string `json:"filename"`
	Filepath    string `json:"filepath"`
	Action      string `json:"action,omitempty"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
	Sequence    int    `json:"sequence"`
	Timestamp   string `json:"timestamp"`
}

// Metadata is the durable mirror of session state. The persisted
// metadata.json file is authoritative: every mutation to assets, status or
// last-activity is written through before the mutating call returns.
type Metadata struct {
	SessionID    string        `json:"session_id"`
	CreatedAt    string        `json:"created_at"`
	BrowserType  Variant       `json:"browser_type"`
	Headless     bool          `json:"headless"`
	Viewport     Viewport      `json:"viewport"`
	RecordVideo  bool          `json:"record_video"`
	Status       SessionStatus `json:"status"`
	TotalActions int           `json:"total_actions"`
	Screenshots  []AssetEntry  `json:"screenshots"`
	Videos       []AssetEntry  `json:"videos"`
	Traces       []AssetEntry  `json:"traces"`
	LastActivity string        `json:"last_activity"`
	SessionDir   string        `json:"session_dir"`
}

// Assets returns the entry list for the given kind.
func (m *Metadata) Assets(kind AssetKind) []AssetEntry {
	switch kind {
	case AssetVideo:
		return m.Videos
	case AssetTrace:
		return m.Traces
	default:
		return m.Screenshots
	}
}

// SessionInfo is the list/status view of an active session.
type SessionInfo struct {
	SessionID    string        `json:"session_id"`
	CreatedAt    string        `json:"created_at"`
	BrowserType  Variant       `json:"browser_type"`
	Headless     bool          `json:"headless"`
	Viewport     Viewport      `json:"viewport"`
	RecordVideo  bool          `json:"record_video"`
	Status       SessionStatus `json:"status"`
	TotalActions int           `json:"total_actions"`
	LastActivity string        `json:"last_activity"`
}
