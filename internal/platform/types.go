package platform

import "time"

// Roles accepted by the platform for client tokens. Other strings are
// passed through unvalidated.
const (
	RoleModerator  = "moderator"
	RolePublisher  = "publisher"
	RoleSubscriber = "subscriber"
)

// SessionOptions configures platform session creation.
type SessionOptions struct {
	MediaMode              string
	ArchiveMode            string
	Location               string
	InitialLayoutClassList []string
}

// TokenOptions configures a client token for one session.
type TokenOptions struct {
	Role                   string
	Data                   string
	InitialLayoutClassList []string
	TTL                    time.Duration
}

// RTMPTarget is one RTMP output of a broadcast.
type RTMPTarget struct {
	ID         string `json:"id,omitempty"`
	ServerURL  string `json:"serverUrl"`
	StreamName string `json:"streamName"`
	Status     string `json:"status,omitempty"`
}

// BroadcastOptions describes the outputs of a new broadcast.
type BroadcastOptions struct {
	RTMP       []RTMPTarget
	LowLatency bool
	DVR        bool
	FHD        bool
	StreamMode string
}

// BroadcastURLs carries the live output endpoints of a broadcast.
type BroadcastURLs struct {
	HLS  string       `json:"hls,omitempty"`
	RTMP []RTMPTarget `json:"rtmp,omitempty"`
}

// Broadcast is the platform's broadcast descriptor.
type Broadcast struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"sessionId"`
	ApplicationID string         `json:"applicationId,omitempty"`
	Status        string         `json:"status"`
	StreamMode    string         `json:"streamMode,omitempty"`
	Resolution    string         `json:"resolution,omitempty"`
	CreatedAt     int64          `json:"createdAt,omitempty"`
	UpdatedAt     int64          `json:"updatedAt,omitempty"`
	BroadcastURLs *BroadcastURLs `json:"broadcastUrls,omitempty"`
}

// Archive is the platform's recording descriptor.
type Archive struct {
	ID            string `json:"id"`
	SessionID     string `json:"sessionId"`
	ApplicationID string `json:"applicationId,omitempty"`
	Name          string `json:"name,omitempty"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	Resolution    string `json:"resolution,omitempty"`
	URL           string `json:"url,omitempty"`
	Duration      int64  `json:"duration,omitempty"`
	Size          int64  `json:"size,omitempty"`
	CreatedAt     int64  `json:"createdAt,omitempty"`
	HasAudio      bool   `json:"hasAudio,omitempty"`
	HasVideo      bool   `json:"hasVideo,omitempty"`
}

// ArchiveFilter narrows an archive listing. Zero-valued fields are
// omitted from the platform query entirely, never sent as defaults.
type ArchiveFilter struct {
	Count     int
	Offset    int
	SessionID string
}

// ArchiveList is one page of archives.
type ArchiveList struct {
	Count int       `json:"count"`
	Items []Archive `json:"items"`
}

// SIPDialOptions describes the outbound SIP leg of a dial request.
type SIPDialOptions struct {
	URI      string
	From     string
	Username string
	Password string
	Secure   bool
	Headers  map[string]string
}

// SIPCall identifies the platform-side leg created by a SIP dial.
type SIPCall struct {
	ID           string `json:"id"`
	ConnectionID string `json:"connectionId"`
	StreamID     string `json:"streamId"`
}

// Conversation is a remote conversation object from the management API.
type Conversation struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ConversationPage is one page of conversations plus the cursor for the
// next page; an empty cursor means the listing is exhausted.
type ConversationPage struct {
	Conversations []Conversation
	NextCursor    string
}
