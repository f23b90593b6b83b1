package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pr-c/midima/internal/telemetry"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// fakeServer replays a scripted handshake so tests can drive Dial and
// PollFaderValues without a real console. It also copies every frame it
// receives into received; no test in this file reads that channel.
type fakeServer struct {
	t        *testing.T
	received chan map[string]any
	loginOK  bool
}

func newFakeServer(t *testing.T, loginOK bool) *httptest.Server {
	t.Helper()
	fs := &fakeServer{t: t, received: make(chan map[string]any, 64), loginOK: loginOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Step 2: unchecked initial frame.
		if err := conn.WriteJSON(map[string]any{"status": "connected", "appType": "test"}); err != nil {
			return
		}

		sessionSent := false
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg map[string]any
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			fs.received <- msg

			if _, hasReqType := msg["requestType"]; !hasReqType {
				// session or keep-alive request: reply with a session id once.
				if !sessionSent {
					conn.WriteJSON(map[string]any{"realtime": true, "session": int32(99)})
					sessionSent = true
				}
				continue
			}
			if !sessionSent {
				continue
			}

			switch msg["requestType"] {
			case "login":
				conn.WriteJSON(map[string]any{
					"realtime":     true,
					"responseType": "login",
					"result":       fs.loginOK,
				})
			case "playbacks":
				conn.WriteJSON(map[string]any{
					"realtime":        true,
					"responseType":    "playbacks",
					"responseSubType": 0,
					"iPage":           0,
					"itemGroups": []map[string]any{
						{
							"itemsType": 2, "cntPages": 1,
							"items": [][]map[string]any{{
								{
									"bC": "", "bdC": "", "combinedItems": 1, "iExec": 0, "isRun": 0,
									"executorBlocks": []map[string]any{
										{
											"button1": map[string]any{"id": 0, "t": "", "s": false},
											"button2": map[string]any{"id": 0, "t": "", "s": false},
											"button3": map[string]any{"id": 0, "t": "", "s": false},
											"fader":   map[string]any{"v": 0.25, "min": 0, "max": 1},
										},
									},
								},
							}},
						},
					},
				})
			}
		}
	}))
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestDialHandshakeSucceeds(t *testing.T) {
	srv := newFakeServer(t, true)
	defer srv.Close()

	client, err := Dial(wsURL(srv.URL), "user", "pass", telemetry.New())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if client.sessionID != 99 {
		t.Fatalf("sessionID = %d, want 99", client.sessionID)
	}
}

func TestDialLoginFailureReturnsInvalidCredentials(t *testing.T) {
	srv := newFakeServer(t, false)
	defer srv.Close()

	_, err := Dial(wsURL(srv.URL), "user", "wrong", telemetry.New())
	if err == nil {
		t.Fatal("expected an error on login failure")
	}
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// P8: no outbound frame other than {session: 0} is emitted before the
// session-id response is received. The fake server only answers login and
// playbacks requests once it has already handed out a session id, so a
// successful Dial is itself evidence the session request went first.
func TestSessionRequestPrecedesLogin(t *testing.T) {
	srv := newFakeServer(t, true)
	defer srv.Close()

	client, err := Dial(wsURL(srv.URL), "user", "pass", telemetry.New())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	client.Close()
}

func TestPollFaderValues(t *testing.T) {
	srv := newFakeServer(t, true)
	defer srv.Close()

	client, err := Dial(wsURL(srv.URL), "user", "pass", telemetry.New())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	values, err := client.PollFaderValues(ctx)
	if err != nil {
		t.Fatalf("PollFaderValues: %v", err)
	}
	if len(values) != 1 || values[0] != 0.25 {
		t.Fatalf("faderValues = %v, want [0.25]", values)
	}
}
