package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/go-zeromq/zmq4"

	"tally/a1"
	"tally/controller"
	"tally/grid"
)

// ConnectionInfo is the connection-file configuration for an external
// code runtime: where its request and result sockets live.
type ConnectionInfo struct {
	Transport   string `json:"transport"`
	IP          string `json:"ip"`
	RequestPort int    `json:"request_port"`
	ResultPort  int    `json:"result_port"`
}

// ExecuteRequest is one code-cell execution sent to the runtime.
type ExecuteRequest struct {
	MsgType  string `json:"msg_type"` // "execute_request"
	SheetID  string `json:"sheet_id"`
	X        int64  `json:"x"`
	Y        int64  `json:"y"`
	Language string `json:"language"`
	Source   string `json:"source"`
}

// ExecuteResult is what the runtime answers with; its payload is the
// controller's CodeResult.
type ExecuteResult struct {
	MsgType string                `json:"msg_type"` // "execute_result"
	SheetID string                `json:"sheet_id"`
	X       int64                 `json:"x"`
	Y       int64                 `json:"y"`
	Result  controller.CodeResult `json:"result"`
}

// Client bridges the engine to an external runtime over ZeroMQ: a
// Push socket carries execute requests out, a Pull socket brings
// results back. Results arrive on Results(); the owner of the
// controller feeds them into AfterCalculationAsync.
type Client struct {
	config  ConnectionInfo
	request zmq4.Socket
	result  zmq4.Socket
	results chan ExecuteResult
	cancel  context.CancelFunc
	mu      sync.Mutex
}

// LoadConnectionInfo reads a connection file.
func LoadConnectionInfo(path string) (ConnectionInfo, error) {
	var config ConnectionInfo
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read connection file: %w", err)
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse connection file: %w", err)
	}
	if config.Transport == "" {
		config.Transport = "tcp"
	}
	if config.IP == "" {
		config.IP = "127.0.0.1"
	}
	return config, nil
}

// NewClient connects to the runtime described by the connection info.
func NewClient(config ConnectionInfo) (*Client, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		config:  config,
		results: make(chan ExecuteResult, 16),
		cancel:  cancel,
	}

	c.request = zmq4.NewPush(ctx)
	addr := fmt.Sprintf("%s://%s:%d", config.Transport, config.IP, config.RequestPort)
	if err := c.request.Dial(addr); err != nil {
		cancel()
		return nil, fmt.Errorf("dial request socket %s: %w", addr, err)
	}

	c.result = zmq4.NewPull(ctx)
	addr = fmt.Sprintf("%s://%s:%d", config.Transport, config.IP, config.ResultPort)
	if err := c.result.Dial(addr); err != nil {
		c.request.Close()
		cancel()
		return nil, fmt.Errorf("dial result socket %s: %w", addr, err)
	}

	go c.receiveResults()
	log.Printf("kernel client connected: request=%d result=%d", config.RequestPort, config.ResultPort)
	return c, nil
}

// Execute implements controller.Runtime.
func (c *Client) Execute(pos a1.SheetPos, lang grid.Language, source string) {
	req := ExecuteRequest{
		MsgType:  "execute_request",
		SheetID:  string(pos.Sheet),
		X:        pos.Pos.X,
		Y:        pos.Pos.Y,
		Language: string(lang),
		Source:   source,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		log.Printf("kernel: marshal request: %v", err)
		c.results <- failureResult(pos, err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.request.Send(zmq4.NewMsg(payload)); err != nil {
		log.Printf("kernel: send request: %v", err)
		c.results <- failureResult(pos, err)
	}
}

// Results delivers runtime answers in arrival order.
func (c *Client) Results() <-chan ExecuteResult {
	return c.results
}

func (c *Client) receiveResults() {
	for {
		msg, err := c.result.Recv()
		if err != nil {
			log.Printf("kernel: result socket closed: %v", err)
			close(c.results)
			return
		}
		var result ExecuteResult
		if err := json.Unmarshal(msg.Bytes(), &result); err != nil {
			log.Printf("kernel: bad result payload: %v", err)
			continue
		}
		if result.MsgType != "execute_result" {
			log.Printf("kernel: unknown message type %q", result.MsgType)
			continue
		}
		c.results <- result
	}
}

func (c *Client) Close() {
	c.cancel()
	c.request.Close()
	c.result.Close()
}

func failureResult(pos a1.SheetPos, err error) ExecuteResult {
	return ExecuteResult{
		MsgType: "execute_result",
		SheetID: string(pos.Sheet),
		X:       pos.Pos.X,
		Y:       pos.Pos.Y,
		Result: controller.CodeResult{
			Success:  false,
			ErrorMsg: err.Error(),
		},
	}
}
