package collective

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"pkg.jsn.cam/fieldminmax/pkg/minmax"
	"pkg.jsn.cam/fieldminmax/pkg/minmax/protocol"
)

// Client is a communicator that takes part in rounds hosted by a
// coordinator over HTTP.
type Client struct {
	http           *http.Client
	coordinatorURL string
	runID          string
	partition      int
	size           int
	seq            uint64
}

// NewClient creates a client for one partition. Rounds block until the
// slowest partition arrives, so the HTTP client has no overall timeout;
// bound a round through the context instead.
func NewClient(coordinatorURL string, partition, size int) *Client {
	return &Client{
		http:           &http.Client{},
		coordinatorURL: coordinatorURL,
		partition:      partition,
		size:           size,
	}
}

// Partition returns this client's partition id.
func (c *Client) Partition() int { return c.partition }

// Size returns the partition count agreed with the coordinator.
func (c *Client) Size() int { return c.size }

// RunID returns the coordinator's run id after registration.
func (c *Client) RunID() string { return c.runID }

// Register announces this partition to the coordinator
func (c *Client) Register(ctx context.Context, nodeID string, cells int) (*protocol.RegistrationResponse, error) {
	req := protocol.RegistrationRequest{
		NodeID:    nodeID,
		Version:   protocol.ToolVersion,
		Partition: c.partition,
		Size:      c.size,
		Cells:     cells,
	}

	var regResp protocol.RegistrationResponse
	status, err := c.post(ctx, c.coordinatorURL+"/api/partitions/register", req, &regResp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", minmax.ErrRegistrationFailed, err)
	}
	if status != http.StatusOK || !regResp.Success {
		return nil, fmt.Errorf("%w: %s", minmax.ErrRegistrationFailed, regResp.Error)
	}

	c.runID = regResp.RunID
	c.size = regResp.Size
	return &regResp, nil
}

// AllGather posts this partition's candidate for the next round and waits
// for the coordinator to answer with every partition's contribution.
func (c *Client) AllGather(ctx context.Context, key string, cand minmax.Candidate) ([]minmax.Candidate, error) {
	if c.runID == "" {
		return nil, fmt.Errorf("%w: partition %d is not registered", minmax.ErrRoundFailed, c.partition)
	}

	c.seq++
	cand.Partition = c.partition
	req := protocol.ContributionRequest{
		Key:       key,
		Partition: c.partition,
		Candidate: cand,
	}

	url := fmt.Sprintf("%s/api/runs/%s/rounds/%d", c.coordinatorURL, c.runID, c.seq)

	var roundResp protocol.RoundResponse
	status, err := c.post(ctx, url, req, &roundResp)
	if err != nil {
		return nil, fmt.Errorf("%w: round %d: %v", minmax.ErrRoundFailed, c.seq, err)
	}

	switch {
	case roundResp.Mismatch:
		return nil, fmt.Errorf("%w: %s", minmax.ErrCollectiveMismatch, roundResp.Error)
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", minmax.ErrRunNotFound, c.runID)
	case status != http.StatusOK:
		return nil, fmt.Errorf("%w: round %d: %s", minmax.ErrRoundFailed, c.seq, roundResp.Error)
	}

	return roundResp.Candidates, nil
}

// Health checks that the coordinator is reachable.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.coordinatorURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coordinator health: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, in, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response: %w", resp.Status, err)
	}
	return resp.StatusCode, nil
}
