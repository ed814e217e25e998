package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/index"
	"github.com/coldvault/core/pkg/transport/svcauth"
)

// IndexHandler binds the allocation and quota engine to the wire operations
// of §6: allocated_bucket (v1/v2), reference_counts, add_user, and the
// inbound half of the bucket->index sync stream.
type IndexHandler struct {
	engine *index.Engine
	auth   *svcauth.Service
}

// NewIndexHandler creates an IndexHandler.
func NewIndexHandler(engine *index.Engine, auth *svcauth.Service) *IndexHandler {
	return &IndexHandler{engine: engine, auth: auth}
}

// Routes mounts the index's endpoints onto r.
func (h *IndexHandler) Routes(r chi.Router) {
	r.Post("/allocated-bucket", h.AllocatedBucket)
	r.Post("/v1/allocated-bucket", h.AllocatedBucketV1)
	r.Post("/reference-counts", h.ReferenceCounts)
	r.Post("/users", h.AddUser)
	r.Post("/sync", h.SyncBlobs)
	r.Post("/rollout/drain", h.EnqueueBucketDrain)
	r.Post("/rollout/take", h.TakeNextBucketDrain)
	r.Post("/rollout/result", h.ReportBucketDrainResult)
	r.Get("/rollout/metrics", h.RolloutMetrics)
}

// AllocatedBucket handles POST /allocated-bucket (allocated_bucket v2).
func (h *IndexHandler) AllocatedBucket(w http.ResponseWriter, r *http.Request) {
	var req AllocatedBucketRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.engine.AllocatedBucket(index.AllocatedBucketArgs{
		Caller:   req.Caller,
		FileHash: req.FileHash,
		FileSize: req.FileSize,
	})
	if err != nil {
		handleIndexError(w, err)
		return
	}

	WriteJSONOK(w, toAllocatedBucketResponse(result))
}

// AllocatedBucketV1 handles POST /v1/allocated-bucket, the legacy shape.
func (h *IndexHandler) AllocatedBucketV1(w http.ResponseWriter, r *http.Request) {
	var req AllocatedBucketRequestV1
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.engine.AllocatedBucketV1(index.AllocatedBucketArgsV1{
		Caller:   req.Caller,
		BlobHash: req.BlobHash,
		BlobSize: req.BlobSize,
	})
	if err != nil {
		handleIndexError(w, err)
		return
	}

	WriteJSONOK(w, toAllocatedBucketResponseV1(result))
}

// ReferenceCounts handles POST /reference-counts (reference_counts) — a
// pure projection, mutating nothing.
func (h *IndexHandler) ReferenceCounts(w http.ResponseWriter, r *http.Request) {
	var req ReferenceCountsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.engine.ReferenceCounts(req.Caller, req.FileHash, req.FileSize)
	if err != nil {
		handleIndexError(w, err)
		return
	}

	WriteJSONOK(w, toReferenceCountsResponse(result))
}

// AddUser handles POST /users (add_user). Restricted to operator-kind
// service principals.
func (h *IndexHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.RequireKind(bearerToken(r), "operator"); err != nil {
		Forbidden(w, "caller is not an operator")
		return
	}

	var req AddUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	h.engine.AddUser(req.User, req.ByteLimit)
	WriteJSONCreated(w, struct{}{})
}

// SyncBlobs handles POST /sync, the inbound half of the bucket->index sync
// stream (the BlobReferenceAdded/BlobReferenceRemoved events a bucket
// pushes after draining its own outbox). The caller must present a
// bucket-kind token whose principal parses as a bucket id; that id names
// the bucket the events are attributed to. Registration is not checked.
func (h *IndexHandler) SyncBlobs(w http.ResponseWriter, r *http.Request) {
	claims, err := h.auth.RequireKind(bearerToken(r), "bucket")
	if err != nil {
		Forbidden(w, "caller is not a recognized bucket")
		return
	}

	bucketID, err := ids.ParseBucketId(string(claims.Principal))
	if err != nil {
		Forbidden(w, "caller principal is not a valid bucket id")
		return
	}

	var req BlobSyncRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	resp := BlobSyncResponse{}
	for _, event := range req.Events {
		switch event.Kind {
		case "blob_reference_added":
			rejected, err := h.engine.AddBlobReference(index.BlobReferenceAdded{
				Bucket:     bucketID,
				UploadedBy: event.UploadedBy,
				BlobID:     event.BlobID,
				BlobHash:   event.BlobHash,
				BlobSize:   event.BlobSize,
			})
			if err != nil {
				handleIndexError(w, err)
				return
			}
			if rejected != nil {
				resp.Rejected = append(resp.Rejected, rejected.BlobHash)
			}
		case "blob_reference_removed":
			if err := h.engine.RemoveBlobReference(index.BlobReferenceRemoved{
				Bucket:      bucketID,
				UploadedBy:  event.UploadedBy,
				BlobHash:    event.BlobHash,
				BlobDeleted: event.BlobDeleted,
			}); err != nil {
				handleIndexError(w, err)
				return
			}
		default:
			BadRequest(w, "unknown sync event kind: "+event.Kind)
			return
		}
	}

	WriteJSONOK(w, resp)
}

// EnqueueBucketDrain handles POST /rollout/drain, an operator request to
// queue a bucket for maintenance-mode drain ahead of decommissioning.
// Restricted to operator-kind service principals.
func (h *IndexHandler) EnqueueBucketDrain(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.RequireKind(bearerToken(r), "operator"); err != nil {
		Forbidden(w, "caller is not an operator")
		return
	}

	var req BucketDrainRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	h.engine.EnqueueBucketDrain(req.Bucket)
	WriteJSONCreated(w, struct{}{})
}

// TakeNextBucketDrain handles POST /rollout/take: a drain worker pulls the
// next bucket off the pending queue and marks it in progress, excluding it
// from fresh allocations until the result is reported.
func (h *IndexHandler) TakeNextBucketDrain(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.RequireKind(bearerToken(r), "operator"); err != nil {
		Forbidden(w, "caller is not an operator")
		return
	}

	bucket, ok := h.engine.TryTakeNextBucketDrain()
	WriteJSONOK(w, BucketDrainTakeResponse{Bucket: bucket, Taken: ok})
}

// ReportBucketDrainResult handles POST /rollout/result, a drain worker
// reporting whether a bucket's maintenance-mode drain succeeded or failed.
func (h *IndexHandler) ReportBucketDrainResult(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.RequireKind(bearerToken(r), "operator"); err != nil {
		Forbidden(w, "caller is not an operator")
		return
	}

	var req BucketDrainResultRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Success {
		h.engine.MarkBucketDrainSuccess(req.Bucket)
	} else {
		h.engine.MarkBucketDrainFailure(req.Bucket, req.Reason)
	}
	WriteJSONOK(w, struct{}{})
}

// RolloutMetrics handles GET /rollout/metrics, reporting the current
// maintenance-mode rollout queue depth and failed-drain summary.
func (h *IndexHandler) RolloutMetrics(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.RequireKind(bearerToken(r), "operator"); err != nil {
		Forbidden(w, "caller is not an operator")
		return
	}

	WriteJSONOK(w, toRolloutMetricsResponse(h.engine.RolloutMetrics()))
}
