package platform

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// VonageConfig carries the credentials and endpoints for the REST client.
type VonageConfig struct {
	ApplicationID           string
	PrivateKey              []byte
	VideoAPIBaseURL         string
	ConversationsAPIBaseURL string
	ClientTokenTTL          time.Duration
}

// Vonage talks to the Vonage Video REST API and the conversations
// management API, authenticating with short-lived RS256 application JWTs.
type Vonage struct {
	applicationID string
	privateKey    *rsa.PrivateKey
	videoBaseURL  string
	apiBaseURL    string
	tokenTTL      time.Duration
	client        *http.Client
}

func NewVonage(cfg VonageConfig) (*Vonage, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	videoBase := strings.TrimRight(cfg.VideoAPIBaseURL, "/")
	if videoBase == "" {
		videoBase = "https://video.api.vonage.com"
	}
	apiBase := strings.TrimRight(cfg.ConversationsAPIBaseURL, "/")
	if apiBase == "" {
		apiBase = "https://api.nexmo.com"
	}
	ttl := cfg.ClientTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Vonage{
		applicationID: cfg.ApplicationID,
		privateKey:    key,
		videoBaseURL:  videoBase,
		apiBaseURL:    apiBase,
		tokenTTL:      ttl,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// APIError is a non-2xx reply from the platform.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("platform returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("platform returned status %d: %s", e.StatusCode, e.Body)
}

func (v *Vonage) authToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"application_id": v.applicationID,
		"iat":            now.Unix(),
		"exp":            now.Add(5 * time.Minute).Unix(),
		"jti":            uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(v.privateKey)
}

// GenerateClientToken mints a role-scoped connect token for a session.
// The role is embedded as-is; unknown roles are the platform's problem.
func (v *Vonage) GenerateClientToken(sessionID string, opts TokenOptions) (string, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = v.tokenTTL
	}
	role := opts.Role
	if role == "" {
		role = RolePublisher
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"application_id": v.applicationID,
		"session_id":     sessionID,
		"role":           role,
		"scope":          "session.connect",
		"sub":            "video",
		"iat":            now.Unix(),
		"exp":            now.Add(ttl).Unix(),
		"jti":            uuid.NewString(),
	}
	if opts.Data != "" {
		claims["connection_data"] = opts.Data
	}
	if len(opts.InitialLayoutClassList) > 0 {
		claims["initial_layout_class_list"] = strings.Join(opts.InitialLayoutClassList, " ")
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(v.privateKey)
}

// CreateSession requests a new session from the platform and returns its id.
func (v *Vonage) CreateSession(ctx context.Context, opts SessionOptions) (string, error) {
	form := url.Values{}
	switch opts.MediaMode {
	case "", "routed":
		form.Set("p2p.preference", "disabled")
	case "relayed":
		form.Set("p2p.preference", "enabled")
	default:
		form.Set("p2p.preference", opts.MediaMode)
	}
	if opts.ArchiveMode != "" {
		form.Set("archiveMode", opts.ArchiveMode)
	}
	if opts.Location != "" {
		form.Set("location", opts.Location)
	}

	var sessions []struct {
		SessionID string `json:"session_id"`
	}
	err := v.doForm(ctx, http.MethodPost, v.videoBaseURL+"/session/create", form, &sessions)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 || sessions[0].SessionID == "" {
		return "", fmt.Errorf("platform returned no session")
	}
	return sessions[0].SessionID, nil
}

func (v *Vonage) projectURL(parts ...string) string {
	return v.videoBaseURL + "/v2/project/" + v.applicationID + "/" + strings.Join(parts, "/")
}

// ListBroadcasts returns the broadcasts currently known for a session.
func (v *Vonage) ListBroadcasts(ctx context.Context, sessionID string) ([]Broadcast, error) {
	u := v.projectURL("broadcast") + "?sessionId=" + url.QueryEscape(sessionID)
	var page struct {
		Count int         `json:"count"`
		Items []Broadcast `json:"items"`
	}
	if err := v.doJSON(ctx, http.MethodGet, u, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// StartBroadcast begins broadcasting a session to the configured outputs.
func (v *Vonage) StartBroadcast(ctx context.Context, sessionID string, opts BroadcastOptions) (*Broadcast, error) {
	outputs := map[string]any{
		"hls": map[string]bool{
			"lowLatency": opts.LowLatency,
			"dvr":        opts.DVR,
		},
	}
	if len(opts.RTMP) > 0 {
		outputs["rtmp"] = opts.RTMP
	}
	resolution := "1280x720"
	if opts.FHD {
		resolution = "1920x1080"
	}
	body := map[string]any{
		"sessionId":  sessionID,
		"outputs":    outputs,
		"resolution": resolution,
	}
	if opts.StreamMode != "" {
		body["streamMode"] = opts.StreamMode
	}
	var out Broadcast
	if err := v.doJSON(ctx, http.MethodPost, v.projectURL("broadcast"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StopBroadcast stops a broadcast by id and returns its final descriptor.
func (v *Vonage) StopBroadcast(ctx context.Context, broadcastID string) (*Broadcast, error) {
	var out Broadcast
	if err := v.doJSON(ctx, http.MethodPost, v.projectURL("broadcast", broadcastID, "stop"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBroadcast fetches the live descriptor for a broadcast id.
func (v *Vonage) GetBroadcast(ctx context.Context, broadcastID string) (*Broadcast, error) {
	var out Broadcast
	if err := v.doJSON(ctx, http.MethodGet, v.projectURL("broadcast", broadcastID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartArchive begins recording a session under the given name.
func (v *Vonage) StartArchive(ctx context.Context, sessionID, name string) (*Archive, error) {
	body := map[string]any{"sessionId": sessionID}
	if name != "" {
		body["name"] = name
	}
	var out Archive
	if err := v.doJSON(ctx, http.MethodPost, v.projectURL("archive"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StopArchive stops a recording by id.
func (v *Vonage) StopArchive(ctx context.Context, archiveID string) (*Archive, error) {
	var out Archive
	if err := v.doJSON(ctx, http.MethodPost, v.projectURL("archive", archiveID, "stop"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetArchive fetches one archive by id.
func (v *Vonage) GetArchive(ctx context.Context, archiveID string) (*Archive, error) {
	var out Archive
	if err := v.doJSON(ctx, http.MethodGet, v.projectURL("archive", archiveID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListArchives returns archives matching the filter. Unset filter fields
// are left out of the query entirely.
func (v *Vonage) ListArchives(ctx context.Context, filter ArchiveFilter) (*ArchiveList, error) {
	q := url.Values{}
	if filter.Count > 0 {
		q.Set("count", strconv.Itoa(filter.Count))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	if filter.SessionID != "" {
		q.Set("sessionId", filter.SessionID)
	}
	u := v.projectURL("archive")
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	var out ArchiveList
	if err := v.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DialSIP connects a session's audio to a SIP endpoint.
func (v *Vonage) DialSIP(ctx context.Context, sessionID, token string, opts SIPDialOptions) (*SIPCall, error) {
	sip := map[string]any{
		"uri":    opts.URI,
		"secure": opts.Secure,
	}
	if opts.From != "" {
		sip["from"] = opts.From
	}
	if opts.Username != "" {
		sip["auth"] = map[string]string{
			"username": opts.Username,
			"password": opts.Password,
		}
	}
	if len(opts.Headers) > 0 {
		sip["headers"] = opts.Headers
	}
	body := map[string]any{
		"sessionId": sessionID,
		"token":     token,
		"sip":       sip,
	}
	var out SIPCall
	if err := v.doJSON(ctx, http.MethodPost, v.projectURL("dial"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DisconnectClient forces a connection out of a session.
func (v *Vonage) DisconnectClient(ctx context.Context, sessionID, connectionID string) error {
	u := v.projectURL("session", sessionID, "connection", connectionID)
	return v.doJSON(ctx, http.MethodDelete, u, nil, nil)
}

// ListConversations fetches one page of conversation objects from the
// management API, starting at the given cursor.
func (v *Vonage) ListConversations(ctx context.Context, cursor string) (ConversationPage, error) {
	q := url.Values{}
	q.Set("page_size", "100")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u := v.apiBaseURL + "/v0.3/conversations?" + q.Encode()

	var page struct {
		Embedded struct {
			Conversations []Conversation `json:"conversations"`
		} `json:"_embedded"`
		Links struct {
			Next struct {
				Href string `json:"href"`
			} `json:"next"`
		} `json:"_links"`
	}
	if err := v.doJSON(ctx, http.MethodGet, u, nil, &page); err != nil {
		return ConversationPage{}, err
	}

	out := ConversationPage{Conversations: page.Embedded.Conversations}
	if page.Links.Next.Href != "" {
		if next, err := url.Parse(page.Links.Next.Href); err == nil {
			out.NextCursor = next.Query().Get("cursor")
		}
	}
	return out, nil
}

// DeleteConversation removes one remote conversation object.
func (v *Vonage) DeleteConversation(ctx context.Context, conversationID string) error {
	u := v.apiBaseURL + "/v0.3/conversations/" + url.PathEscape(conversationID)
	return v.doJSON(ctx, http.MethodDelete, u, nil, nil)
}

func (v *Vonage) doJSON(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return v.send(req, out)
}

func (v *Vonage) doForm(ctx context.Context, method, u string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, u, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return v.send(req, out)
}

func (v *Vonage) send(req *http.Request, out any) error {
	token, err := v.authToken()
	if err != nil {
		return fmt.Errorf("sign auth token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	res, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
