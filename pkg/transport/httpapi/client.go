package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coldvault/core/pkg/bucketstore"
	"github.com/coldvault/core/pkg/reconcile"
)

// IndexSyncClient pushes a bucket's outbound BlobEvent batches to the
// index's /sync endpoint, implementing reconcile.Pusher[bucketstore.BlobEvent].
type IndexSyncClient struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
}

// NewIndexSyncClient creates an IndexSyncClient.
func NewIndexSyncClient(baseURL string, token string) *IndexSyncClient {
	return &IndexSyncClient{HTTPClient: &http.Client{Timeout: 30 * time.Second}, BaseURL: baseURL, Token: token}
}

// Push implements reconcile.Pusher[bucketstore.BlobEvent].
func (c *IndexSyncClient) Push(ctx context.Context, batch []bucketstore.BlobEvent) error {
	req := BlobSyncRequest{Events: make([]BlobSyncEvent, 0, len(batch))}
	for _, event := range batch {
		switch event.Kind {
		case bucketstore.EventBlobReferenceAdded:
			a := event.Added
			req.Events = append(req.Events, BlobSyncEvent{
				Kind: "blob_reference_added", UploadedBy: a.UploadedBy,
				BlobID: a.BlobId, BlobHash: a.BlobHash, BlobSize: a.BlobSize,
			})
		case bucketstore.EventBlobReferenceRemoved:
			rm := event.Removed
			req.Events = append(req.Events, BlobSyncEvent{
				Kind: "blob_reference_removed", UploadedBy: rm.UploadedBy,
				BlobHash: rm.BlobHash, BlobDeleted: rm.BlobDeleted,
			})
		}
	}

	var resp BlobSyncResponse
	if err := c.post(ctx, "/sync", req, &resp); err != nil {
		return err
	}
	if len(resp.Rejected) > 0 {
		return fmt.Errorf("index rejected %d blob reference(s) over allowance", len(resp.Rejected))
	}
	return nil
}

var _ reconcile.Pusher[bucketstore.BlobEvent] = (*IndexSyncClient)(nil).Push

// BucketSyncClient pushes the index's per-bucket outbound IndexEvent
// batches to one bucket's /sync endpoint, implementing
// reconcile.Pusher[reconcile.IndexEvent].
type BucketSyncClient struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
}

// NewBucketSyncClient creates a BucketSyncClient addressing one bucket.
func NewBucketSyncClient(baseURL string, token string) *BucketSyncClient {
	return &BucketSyncClient{HTTPClient: &http.Client{Timeout: 30 * time.Second}, BaseURL: baseURL, Token: token}
}

// Push implements reconcile.Pusher[reconcile.IndexEvent].
func (c *BucketSyncClient) Push(ctx context.Context, batch []reconcile.IndexEvent) error {
	req := SyncIndexRequest{Events: make([]SyncIndexEvent, 0, len(batch))}
	for _, event := range batch {
		switch event.Kind {
		case reconcile.EventUserAdded:
			req.Events = append(req.Events, SyncIndexEvent{Kind: "user_added", UserID: event.UserId})
		case reconcile.EventUserRemoved:
			req.Events = append(req.Events, SyncIndexEvent{Kind: "user_removed", UserID: event.UserId})
		case reconcile.EventAccessorRemoved:
			req.Events = append(req.Events, SyncIndexEvent{Kind: "accessor_removed", AccessorID: event.AccessorId})
		}
	}

	var resp SyncIndexResponse
	return c.post(ctx, "/sync", req, &resp)
}

var _ reconcile.Pusher[reconcile.IndexEvent] = (*BucketSyncClient)(nil).Push

func (c *IndexSyncClient) post(ctx context.Context, path string, body, out any) error {
	return doPost(ctx, c.HTTPClient, c.BaseURL+path, c.Token, body, out)
}

func (c *BucketSyncClient) post(ctx context.Context, path string, body, out any) error {
	return doPost(ctx, c.HTTPClient, c.BaseURL+path, c.Token, body, out)
}

func doPost(ctx context.Context, client *http.Client, url, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
