package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

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
	return c.client.Call(serviceName+"."+method, req, resp)
}

// Stop asks the daemon process to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Session returns the current authoring session.
func (c *Client) Session() (*Session, error) {
	var resp SessionResponse
	if err := c.call("Session", SessionRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// Act runs a studio action. A rejected action returns the unchanged session
// together with a *RemoteError.
func (c *Client) Act(action, prompt string) (*Session, error) {
	var resp SessionResponse
	if err := c.call("Act", ActionRequest{Action: action, Prompt: prompt}, &resp); err != nil {
		return nil, err
	}
	return &resp.Session, remoteError(resp.Error, resp.ErrorKind)
}

// Wait blocks until the session settles or timeout elapses.
func (c *Client) Wait(timeout time.Duration) (*Session, error) {
	var resp SessionResponse
	req := WaitRequest{TimeoutSeconds: int(timeout / time.Second)}
	if err := c.call("Wait", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Session, remoteError(resp.Error, resp.ErrorKind)
}

// LibraryList returns finalized videos, newest first.
func (c *Client) LibraryList(limit int, sessionID string) (*LibraryListResponse, error) {
	var resp LibraryListResponse
	if err := c.call("LibraryList", LibraryListRequest{Limit: limit, SessionID: sessionID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LibraryShow returns a single video.
func (c *Client) LibraryShow(id string) (*Video, error) {
	var resp LibraryShowResponse
	if err := c.call("LibraryShow", LibraryShowRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	if err := remoteError(resp.Error, resp.ErrorKind); err != nil {
		return nil, err
	}
	return &resp.Video, nil
}

// LibraryDelete removes a video from the library.
func (c *Client) LibraryDelete(id string) error {
	var resp LibraryDeleteResponse
	if err := c.call("LibraryDelete", LibraryDeleteRequest{ID: id}, &resp); err != nil {
		return err
	}
	return remoteError(resp.Error, resp.ErrorKind)
}

// LibraryCompile stitches the listed videos into a new library entry. It
// blocks until the stitch service answers.
func (c *Client) LibraryCompile(ids []string) (*Video, error) {
	var resp LibraryShowResponse
	if err := c.call("LibraryCompile", LibraryCompileRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}
	if err := remoteError(resp.Error, resp.ErrorKind); err != nil {
		return nil, err
	}
	return &resp.Video, nil
}

// Preflight runs the environment checks inside the daemon.
func (c *Client) Preflight() (*PreflightResponse, error) {
	var resp PreflightResponse
	if err := c.call("Preflight", PreflightRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
