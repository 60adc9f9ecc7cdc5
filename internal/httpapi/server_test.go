package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/antoniostano/roombridge/internal/archive"
	"github.com/antoniostano/roombridge/internal/broadcast"
	"github.com/antoniostano/roombridge/internal/config"
	"github.com/antoniostano/roombridge/internal/observability"
	"github.com/antoniostano/roombridge/internal/platform"
	"github.com/antoniostano/roombridge/internal/rooms"
	"github.com/antoniostano/roombridge/internal/sipbridge"
)

var metricsNamespaceSeq atomic.Int64

type testServer struct {
	*httptest.Server
	mock         *platform.Mock
	roomRegistry *rooms.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Config{
		ApplicationID:    "app-1",
		ConferenceNumber: "14155550100",
	}
	mock := platform.NewMock()
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%d", metricsNamespaceSeq.Add(1)))

	roomRegistry := rooms.NewRegistry()
	roomCoordinator := rooms.NewCoordinator(cfg.ApplicationID, roomRegistry, mock)
	broadcastCoordinator := broadcast.NewCoordinator(broadcast.NewRegistry(), mock)
	archiveCoordinator := archive.NewCoordinator(roomRegistry, mock)
	sipCoordinator := sipbridge.NewCoordinator(sipbridge.Config{
		ConferenceNumber: cfg.ConferenceNumber,
		BridgeURI:        "sip:14155550100@sip.nexmo.com",
		Secure:           true,
	}, roomRegistry, sipbridge.NewRegistry(), mock)

	srv := New(cfg, roomRegistry, roomCoordinator, broadcastCoordinator, archiveCoordinator, sipCoordinator, mock, metrics)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, mock: mock, roomRegistry: roomRegistry}
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != wantStatus {
		body, _ := io.ReadAll(res.Body)
		t.Fatalf("GET %s status = %d, want %d (body %s)", url, res.StatusCode, wantStatus, body)
	}
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode GET %s response: %v", url, err)
	}
	return out
}

func postJSON(t *testing.T, url string, body any, wantStatus int) map[string]any {
	t.Helper()
	payload, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != wantStatus {
		raw, _ := io.ReadAll(res.Body)
		t.Fatalf("POST %s status = %d, want %d (body %s)", url, res.StatusCode, wantStatus, raw)
	}
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode POST %s response: %v", url, err)
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	got := getJSON(t, ts.URL+"/_/health", http.StatusOK)
	if got["status"] != "OK" {
		t.Fatalf("health status = %v, want OK", got["status"])
	}
}

func TestRoomCredentials(t *testing.T) {
	ts := newTestServer(t)

	first := getJSON(t, ts.URL+"/room/standup", http.StatusOK)
	if first["applicationId"] != "app-1" || first["sessionId"] == "" || first["token"] == "" {
		t.Fatalf("room credentials = %+v", first)
	}

	second := getJSON(t, ts.URL+"/room/standup", http.StatusOK)
	if second["sessionId"] != first["sessionId"] {
		t.Fatalf("sessionId changed across calls: %v vs %v", first["sessionId"], second["sessionId"])
	}
	if second["token"] == first["token"] {
		t.Fatalf("token was not freshly minted")
	}
	if ts.mock.CreateSessionCalls != 1 {
		t.Fatalf("CreateSessionCalls = %d, want 1", ts.mock.CreateSessionCalls)
	}
}

func TestSessionRedirect(t *testing.T) {
	ts := newTestServer(t)
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	res, err := client.Get(ts.URL + "/session")
	if err != nil {
		t.Fatalf("GET /session error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusFound {
		t.Fatalf("GET /session status = %d, want %d", res.StatusCode, http.StatusFound)
	}
	if got := res.Header.Get("Location"); got != "/room/session" {
		t.Fatalf("GET /session location = %q, want /room/session", got)
	}
}

func TestBroadcastCredentialsShareDerivedRoom(t *testing.T) {
	ts := newTestServer(t)

	host := getJSON(t, ts.URL+"/broadcast/demo/host", http.StatusOK)
	viewer := getJSON(t, ts.URL+"/broadcast/demo/viewer", http.StatusOK)
	guest := getJSON(t, ts.URL+"/broadcast/demo/guest", http.StatusOK)

	if host["sessionId"] != viewer["sessionId"] || host["sessionId"] != guest["sessionId"] {
		t.Fatalf("host/viewer/guest did not share the derived broadcast room session")
	}
	if room, ok := ts.roomRegistry.RoomOf(host["sessionId"].(string)); !ok || room != "demo-broadcast" {
		t.Fatalf("derived room = %q, want demo-broadcast", room)
	}
}

func TestBroadcastLifecycle(t *testing.T) {
	ts := newTestServer(t)
	creds := getJSON(t, ts.URL+"/room/show", http.StatusOK)
	sessionID := creds["sessionId"].(string)

	started := postJSON(t, ts.URL+"/broadcast/show/start", map[string]any{
		"sessionId": sessionID,
		"fhd":       true,
		"rtmp": []map[string]string{
			{"serverUrl": "rtmp://live.example.com/app", "streamName": "show"},
		},
	}, http.StatusOK)
	if started["id"] == "" || started["status"] != "started" {
		t.Fatalf("broadcast start = %+v", started)
	}

	status := postJSON(t, ts.URL+"/broadcast/show/status", map[string]any{"sessionId": sessionID}, http.StatusOK)
	if status["id"] != started["id"] {
		t.Fatalf("status id = %v, want %v", status["id"], started["id"])
	}

	stopped := postJSON(t, ts.URL+"/broadcast/show/stop", map[string]any{"sessionId": sessionID}, http.StatusOK)
	if stopped["status"] != "stopped" {
		t.Fatalf("stop = %+v", stopped)
	}

	// A second stop has no record; empty 200, zero extra platform stops.
	before := ts.mock.StopBroadcastCalls
	again := postJSON(t, ts.URL+"/broadcast/show/stop", map[string]any{"sessionId": sessionID}, http.StatusOK)
	if len(again) != 0 {
		t.Fatalf("second stop = %+v, want empty object", again)
	}
	if ts.mock.StopBroadcastCalls != before {
		t.Fatalf("second stop reached the platform")
	}
}

func TestBroadcastStartValidation(t *testing.T) {
	ts := newTestServer(t)

	postJSON(t, ts.URL+"/broadcast/show/start", map[string]any{
		"rtmp": []map[string]string{{"serverUrl": "not-a-url"}},
	}, http.StatusBadRequest)

	postJSON(t, ts.URL+"/broadcast/show/start", map[string]any{
		"sessionId":  "session-1",
		"streamMode": "sideways",
	}, http.StatusBadRequest)
}

func TestArchiveFlow(t *testing.T) {
	ts := newTestServer(t)
	creds := getJSON(t, ts.URL+"/room/standup", http.StatusOK)
	sessionID := creds["sessionId"].(string)

	started := postJSON(t, ts.URL+"/archive/start", map[string]string{"sessionId": sessionID}, http.StatusOK)
	if started["name"] != "standup" {
		t.Fatalf("archive name = %v, want the room name", started["name"])
	}
	archiveID := started["id"].(string)

	fetched := getJSON(t, ts.URL+"/archive/"+archiveID, http.StatusOK)
	if fetched["id"] != archiveID {
		t.Fatalf("get archive id = %v, want %v", fetched["id"], archiveID)
	}

	stopped := postJSON(t, ts.URL+"/archive/"+archiveID+"/stop", nil, http.StatusOK)
	if stopped["status"] != "stopped" {
		t.Fatalf("stop archive = %+v", stopped)
	}

	listed := getJSON(t, ts.URL+"/archive?sessionId="+sessionID, http.StatusOK)
	if int(listed["count"].(float64)) != 1 {
		t.Fatalf("archive list = %+v, want one entry", listed)
	}
	if f := ts.mock.LastArchiveFilter; f == nil || f.Count != 0 || f.Offset != 0 {
		t.Fatalf("filter = %+v; absent query fields must stay unset", ts.mock.LastArchiveFilter)
	}
}

func TestArchiveView(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.SeedArchive(platform.Archive{ID: "archive-pending", Status: "started"})
	ts.mock.SeedArchive(platform.Archive{ID: "archive-ready", Status: "available", URL: "https://media.example.com/archive-ready.mp4"})

	res, err := http.Get(ts.URL + "/archive/archive-pending/view")
	if err != nil {
		t.Fatalf("GET pending view error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK || !strings.Contains(res.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("pending view status = %d, content type = %q", res.StatusCode, res.Header.Get("Content-Type"))
	}

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	redirect, err := client.Get(ts.URL + "/archive/archive-ready/view")
	if err != nil {
		t.Fatalf("GET ready view error = %v", err)
	}
	defer redirect.Body.Close()
	if redirect.StatusCode != http.StatusFound {
		t.Fatalf("ready view status = %d, want %d", redirect.StatusCode, http.StatusFound)
	}
	if got := redirect.Header.Get("Location"); got != "https://media.example.com/archive-ready.mp4" {
		t.Fatalf("ready view location = %q", got)
	}
}

func TestSipRoomNotFound(t *testing.T) {
	ts := newTestServer(t)
	got := getJSON(t, ts.URL+"/sip/ghost", http.StatusNotFound)
	if got["title"] != "Room not found" || got["details"] == "" {
		t.Fatalf("sip 404 payload = %+v, want {title, details}", got)
	}
}

func TestSipFlow(t *testing.T) {
	ts := newTestServer(t)
	getJSON(t, ts.URL+"/room/standup", http.StatusOK)

	conv := getJSON(t, ts.URL+"/sip/standup", http.StatusOK)
	pin := int(conv["pin"].(float64))
	if pin < 1000 || pin > 9999 {
		t.Fatalf("pin = %d, want 4-digit value", pin)
	}
	if conv["conferenceNumber"] != "14155550100" {
		t.Fatalf("conferenceNumber = %v", conv["conferenceNumber"])
	}

	// Provisioning is idempotent.
	again := getJSON(t, ts.URL+"/sip/standup", http.StatusOK)
	if again["conversationName"] != conv["conversationName"] {
		t.Fatalf("conversation changed across inquiries")
	}

	postJSON(t, ts.URL+"/sip/standup/dial", map[string]string{"msisdn": "not-a-number"}, http.StatusBadRequest)

	call := postJSON(t, ts.URL+"/sip/standup/dial", map[string]string{"msisdn": "+15551234567"}, http.StatusOK)
	if call["connectionId"] == "" || call["streamId"] == "" {
		t.Fatalf("dial = %+v", call)
	}

	postJSON(t, ts.URL+"/sip/standup/hangup", nil, http.StatusOK)
}

func TestVapiAnswerAndEvents(t *testing.T) {
	ts := newTestServer(t)
	getJSON(t, ts.URL+"/room/standup", http.StatusOK)

	res, err := http.Get(ts.URL + "/sip/vapi/answer?room=standup&from=%2B15559876543")
	if err != nil {
		t.Fatalf("GET answer error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("answer status = %d", res.StatusCode)
	}
	var actions []map[string]any
	if err := json.NewDecoder(res.Body).Decode(&actions); err != nil {
		t.Fatalf("decode ncco: %v", err)
	}
	if len(actions) != 2 || actions[0]["action"] != "talk" || actions[1]["action"] != "conversation" {
		t.Fatalf("ncco = %+v, want talk then conversation", actions)
	}

	// Dial, then complete the call via the events webhook.
	postJSON(t, ts.URL+"/sip/standup/dial", nil, http.StatusOK)
	got := getJSON(t, ts.URL+"/sip/vapi/events?status=completed&room=standup", http.StatusOK)
	if got["status"] != "OK" {
		t.Fatalf("events payload = %+v", got)
	}
	if ts.mock.DisconnectCalls != 1 {
		t.Fatalf("DisconnectCalls = %d, want 1 after completion event", ts.mock.DisconnectCalls)
	}
}

func TestClearConversations(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.Conversations = []platform.Conversation{
		{ID: "CON-1", Name: "swift-amber-otter"},
		{ID: "CON-2", Name: "brave-jade-puffin"},
	}

	got := postJSON(t, ts.URL+"/admin/clear-conversations", nil, http.StatusOK)
	if int(got["deleted"].(float64)) != 2 || int(got["failed"].(float64)) != 0 {
		t.Fatalf("clear-conversations = %+v, want 2 deleted", got)
	}
	if len(ts.mock.DeletedConvs) != 2 {
		t.Fatalf("DeletedConvs = %v", ts.mock.DeletedConvs)
	}
}

func TestUpstreamFailureShape(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.CreateSessionErr = fmt.Errorf("quota exceeded")

	got := getJSON(t, ts.URL+"/room/standup", http.StatusInternalServerError)
	msg, _ := got["error"].(string)
	if !strings.HasPrefix(msg, "createSession error:") || !strings.Contains(msg, "quota exceeded") {
		t.Fatalf("error payload = %q, want createSession context with the cause", msg)
	}
}
