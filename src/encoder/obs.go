package encoder

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// opResult carries the outcome of one in-flight OBS request.
type opResult struct {
	err        error
	outputPath string
}

// OBSEngine records through an OBS instance over the obs-websocket v5
// protocol. OBS owns the capture source configuration; this engine only
// starts and stops the record output.
type OBSEngine struct {
	wsURL string

	mu            sync.Mutex
	conn          *websocket.Conn
	requestID     int
	currentOpChan chan opResult
	events        chan Event
	recording     bool
}

func NewOBSEngine(wsURL string) *OBSEngine {
	return &OBSEngine{
		wsURL:         wsURL,
		currentOpChan: make(chan opResult, 1),
		events:        make(chan Event, 4),
	}
}

func (e *OBSEngine) Events() <-chan Event { return e.events }

// Start connects to OBS, identifies, and issues StartRecord. The job's
// mode/region settings are ignored; OBS captures whatever its active scene
// shows.
func (e *OBSEngine) Start(ctx context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.recording {
		e.mu.Unlock()
		return fmt.Errorf("engine already recording")
	}
	e.mu.Unlock()

	if err := e.connect(ctx); err != nil {
		return err
	}
	if err := e.request("StartRecord", nil); err != nil {
		e.closeConn()
		return fmt.Errorf("StartRecord failed: %w", err)
	}

	e.mu.Lock()
	e.recording = true
	e.mu.Unlock()

	log.Printf("Encoder: OBS recording started")
	e.events <- Event{Kind: EventStarted}
	return nil
}

// Stop issues StopRecord and reports the path OBS wrote to.
func (e *OBSEngine) Stop() error {
	e.mu.Lock()
	if !e.recording {
		e.mu.Unlock()
		return nil
	}
	e.recording = false
	e.mu.Unlock()

	path, err := e.requestWithResult("StopRecord", nil)
	e.closeConn()
	if err != nil {
		e.events <- Event{Kind: EventFailed, Err: fmt.Errorf("StopRecord failed: %w", err)}
		return err
	}

	log.Printf("Encoder: OBS recording stopped, output at %s", path)
	e.events <- Event{Kind: EventFinished, OutputPath: path}
	return nil
}

func (e *OBSEngine) connect(ctx context.Context) error {
	u, err := url.Parse(e.wsURL)
	if err != nil {
		return fmt.Errorf("invalid OBS websocket URL %q: %w", e.wsURL, err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to OBS at %s: %w", e.wsURL, err)
	}

	e.mu.Lock()
	e.conn = conn
	e.mu.Unlock()

	go e.listen(conn)
	return e.sendIdentify()
}

func (e *OBSEngine) closeConn() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil {
		_ = e.conn.Close()
		e.conn = nil
	}
}

func (e *OBSEngine) sendIdentify() error {
	identify := map[string]interface{}{
		"op": 1,
		"d": map[string]interface{}{
			"rpcVersion": 1,
		},
	}
	if err := e.sendMessage(identify); err != nil {
		return err
	}
	// Hello/Identified handshake completes before any request is accepted.
	res := <-e.currentOpChan
	return res.err
}

// request issues an op 6 request and waits for its op 7 response.
func (e *OBSEngine) request(requestType string, data map[string]interface{}) error {
	_, err := e.requestWithResult(requestType, data)
	return err
}

func (e *OBSEngine) requestWithResult(requestType string, data map[string]interface{}) (string, error) {
	d := map[string]interface{}{
		"requestType": requestType,
	}
	if data != nil {
		d["requestData"] = data
	}
	msg := map[string]interface{}{
		"op": 6,
		"d":  d,
	}
	if err := e.sendMessage(msg); err != nil {
		return "", err
	}
	res := <-e.currentOpChan
	return res.outputPath, res.err
}

func (e *OBSEngine) sendMessage(message map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil {
		return fmt.Errorf("not connected to OBS")
	}

	e.requestID++
	message["d"].(map[string]interface{})["requestId"] = fmt.Sprintf("%d", e.requestID)
	return e.conn.WriteJSON(message)
}

func (e *OBSEngine) listen(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			e.deliver(opResult{err: fmt.Errorf("read error: %w", err)})
			return
		}

		var response map[string]interface{}
		if err := json.Unmarshal(message, &response); err != nil {
			e.deliver(opResult{err: fmt.Errorf("unmarshal error: %w", err)})
			return
		}

		e.handleMessage(response)
	}
}

func (e *OBSEngine) handleMessage(message map[string]interface{}) {
	opCode, ok := message["op"].(float64)
	if !ok {
		return
	}

	switch int(opCode) {
	case 2: // Identified
		e.deliver(opResult{})
	case 7: // RequestResponse
		// Frames come off the network; never trust their shape.
		d, ok := message["d"].(map[string]interface{})
		if !ok {
			e.deliver(opResult{err: fmt.Errorf("malformed response: missing d")})
			return
		}
		status, ok := d["requestStatus"].(map[string]interface{})
		if !ok {
			e.deliver(opResult{err: fmt.Errorf("malformed response: missing requestStatus")})
			return
		}
		code, ok := status["code"].(float64)
		if !ok {
			e.deliver(opResult{err: fmt.Errorf("malformed response: missing status code")})
			return
		}
		if int(code) != 100 {
			comment, _ := status["comment"].(string)
			e.deliver(opResult{err: fmt.Errorf("operation failed: %s", comment)})
			return
		}
		var path string
		if rd, ok := d["responseData"].(map[string]interface{}); ok {
			path, _ = rd["outputPath"].(string)
		}
		e.deliver(opResult{outputPath: path})
	}
}

// deliver hands a result to the waiting request without blocking the reader
// when nothing is waiting.
func (e *OBSEngine) deliver(res opResult) {
	select {
	case e.currentOpChan <- res:
	default:
	}
}
