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

// Status retrieves engine status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Lectern.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlanList fetches stored plan summaries.
func (c *Client) PlanList() (*PlanListResponse, error) {
	var resp PlanListResponse
	if err := c.client.Call("Lectern.PlanList", PlanListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlanShow fetches one plan summary.
func (c *Client) PlanShow(req PlanShowRequest) (*PlanShowResponse, error) {
	var resp PlanShowResponse
	if err := c.client.Call("Lectern.PlanShow", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlanCreate registers a new empty plan.
func (c *Client) PlanCreate(req PlanCreateRequest) (*PlanCreateResponse, error) {
	var resp PlanCreateResponse
	if err := c.client.Call("Lectern.PlanCreate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlanImport stores a fully-formed plan document.
func (c *Client) PlanImport(req PlanImportRequest) (*PlanImportResponse, error) {
	var resp PlanImportResponse
	if err := c.client.Call("Lectern.PlanImport", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Diagnose evaluates phase completeness for a plan.
func (c *Client) Diagnose(req DiagnoseRequest) (*DiagnoseResponse, error) {
	var resp DiagnoseResponse
	if err := c.client.Call("Lectern.Diagnose", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Repair starts a repair run.
func (c *Client) Repair(req RepairRequest) (*RepairResponse, error) {
	var resp RepairResponse
	if err := c.client.Call("Lectern.Repair", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunShow fetches a live or archived run.
func (c *Client) RunShow(req RunShowRequest) (*RunShowResponse, error) {
	var resp RunShowResponse
	if err := c.client.Call("Lectern.RunShow", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunList fetches archived runs for a plan.
func (c *Client) RunList(req RunListRequest) (*RunListResponse, error) {
	var resp RunListResponse
	if err := c.client.Call("Lectern.RunList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel requests a best-effort abort of a run.
func (c *Client) Cancel(req CancelRequest) (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.client.Call("Lectern.Cancel", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logs fetches execution log records past a sequence cursor.
func (c *Client) Logs(req LogsRequest) (*LogsResponse, error) {
	var resp LogsResponse
	if err := c.client.Call("Lectern.Logs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
