package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const callTimeout = 30 * time.Second

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	if err := c.conn.SetDeadline(time.Now().Add(callTimeout)); err != nil {
		return err
	}
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatcherStart resumes inbox watching.
func (c *Client) WatcherStart() (*WatcherStartResponse, error) {
	var resp WatcherStartResponse
	if err := c.call("WatcherStart", WatcherStartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatcherStop pauses inbox watching. In-flight folders finish.
func (c *Client) WatcherStop() (*WatcherStopResponse, error) {
	var resp WatcherStopResponse
	if err := c.call("WatcherStop", WatcherStopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Minted lists up to limit minted assets; zero lists all.
func (c *Client) Minted(limit int) (*MintedResponse, error) {
	var resp MintedResponse
	if err := c.call("Minted", MintedRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Failures lists up to limit journaled failures; zero lists all.
func (c *Client) Failures(limit int) (*FailuresResponse, error) {
	var resp FailuresResponse
	if err := c.call("Failures", FailuresRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification asks the daemon to send a test notification.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
