package console

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pr-c/midima/internal/telemetry"
)

// ErrInvalidCredentials is returned by Dial when the server rejects the
// login request. Credentials are static, so this is a fatal protocol error
// (spec.md §7).
var ErrInvalidCredentials = errors.New("console: invalid credentials")

// ErrClosed is returned by send operations on a torn-down client.
var ErrClosed = errors.New("console: client closed")

const keepAlivePeriod = 4000 * time.Millisecond

// Client implements the session/login/keep-alive state machine toward the
// console over one WebSocket connection (spec.md §4.7).
type Client struct {
	log  telemetry.Logger
	conn *websocket.Conn

	sessionID int32

	outbound chan []byte
	loginCh  chan loginResponse
	sessCh   chan sessionIDResponse
	pbCh     chan playbacksResponse

	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens the WebSocket at url, runs the handshake to completion, and
// returns a Client in the Running state. It blocks until the handshake
// succeeds or fails.
func Dial(url, username, password string, log telemetry.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("console: dial %s: %w", url, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		log:      log,
		conn:     conn,
		outbound: make(chan []byte, 64),
		loginCh:  make(chan loginResponse, 1),
		sessCh:   make(chan sessionIDResponse, 1),
		pbCh:     make(chan playbacksResponse, 1),
		cancel:   cancel,
		closed:   make(chan struct{}),
	}

	c.wg.Add(1)
	go c.writeLoop(ctx)

	// Step 2: the server's initial frame is unchecked; just consume it.
	if _, _, err := conn.ReadMessage(); err != nil {
		c.teardown()
		return nil, fmt.Errorf("console: reading server hello: %w", err)
	}

	c.wg.Add(1)
	go c.readLoop(ctx)

	// Step 3: request a session id.
	if err := c.sendRaw(sessionRequest{Session: 0}); err != nil {
		c.teardown()
		return nil, err
	}
	sess, err := c.awaitSession(5 * time.Second)
	if err != nil {
		c.teardown()
		return nil, err
	}
	c.sessionID = sess.Session
	log.Info("session established", telemetry.Int("session_id", int(c.sessionID)))

	// Step 4: start the keep-alive task.
	c.wg.Add(1)
	go c.keepAliveLoop(ctx)

	// Step 5: log in.
	passwordHash := md5Hex(password)
	if err := c.sendRaw(newLoginRequest(c.sessionID, username, passwordHash)); err != nil {
		c.teardown()
		return nil, err
	}
	login, err := c.awaitLogin(5 * time.Second)
	if err != nil {
		c.teardown()
		return nil, err
	}
	if !login.Result {
		c.teardown()
		return nil, ErrInvalidCredentials
	}

	return c, nil
}

func md5Hex(plaintext string) string {
	sum := md5.Sum([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func (c *Client) writeLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.outbound:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Error("console write failed", telemetry.Err("error", err))
				return
			}
		}
	}
}

// readLoop demuxes every inbound text frame. If responseType is present it
// routes by that string; otherwise it tries the untyped session-id shape.
// Anything else, including empty frames, is dropped.
func (c *Client) readLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Warn("console read loop ending", telemetry.Err("error", err))
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		c.demux(data)
	}
}

func (c *Client) demux(data []byte) {
	if len(data) == 0 {
		return
	}

	var env responseEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.ResponseType != "" {
		switch env.ResponseType {
		case "login":
			var resp loginResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				trySend(c.loginCh, resp)
			}
		case "playbacks":
			var resp playbacksResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				trySend(c.pbCh, resp)
			}
		default:
			// "command", "close", or any other recognized-but-unhandled
			// responseType: nothing in the bridge consumes these.
		}
		return
	}

	var sess sessionIDResponse
	if err := json.Unmarshal(data, &sess); err == nil {
		trySend(c.sessCh, sess)
		return
	}
	// Unparseable, non-empty frame: dropped.
}

func trySend[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func (c *Client) keepAliveLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(keepAlivePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.sendRaw(keepAliveRequest{Session: c.sessionID}); err != nil {
				c.log.Warn("keep-alive send failed", telemetry.Err("error", err))
			}
		}
	}
}

func (c *Client) sendRaw(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("console: marshal request: %w", err)
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case <-c.closed:
		return ErrClosed
	case c.outbound <- data:
		return nil
	}
}

func (c *Client) awaitSession(timeout time.Duration) (sessionIDResponse, error) {
	select {
	case resp := <-c.sessCh:
		return resp, nil
	case <-time.After(timeout):
		return sessionIDResponse{}, fmt.Errorf("console: timed out awaiting session id")
	}
}

func (c *Client) awaitLogin(timeout time.Duration) (loginResponse, error) {
	select {
	case resp := <-c.loginCh:
		return resp, nil
	case <-time.After(timeout):
		return loginResponse{}, fmt.Errorf("console: timed out awaiting login response")
	}
}

// PollFaderValues requests the current fader values and returns them in
// order, or an error on timeout.
func (c *Client) PollFaderValues(ctx context.Context) ([]float32, error) {
	if err := c.sendRaw(newPlaybacksRequest(c.sessionID)); err != nil {
		return nil, err
	}
	select {
	case resp := <-c.pbCh:
		return resp.faderValues(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendFaderValue is a fire-and-forget console update for one executor.
func (c *Client) SendFaderValue(execIndex uint8, normalized float32) error {
	return c.sendRaw(newFaderInputRequest(c.sessionID, execIndex, normalized))
}

// SendButtonValue is a fire-and-forget console update for one button.
func (c *Client) SendButtonValue(execIndex uint8, pressed bool, position ButtonPosition) error {
	return c.sendRaw(newButtonInputRequest(c.sessionID, execIndex, pressed, position))
}

// Close tears down the read, write, and keep-alive tasks and closes the
// underlying connection. Send operations after Close fail with ErrClosed.
func (c *Client) Close() error {
	c.teardown()
	return nil
}

func (c *Client) teardown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.cancel()
		c.conn.Close()
	})
	c.wg.Wait()
}
