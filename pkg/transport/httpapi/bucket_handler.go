package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coldvault/core/pkg/bucketstore"
	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/reconcile"
	"github.com/coldvault/core/pkg/transport/svcauth"
)

// BucketHandler binds a bucket content store to the wire operations of §6:
// upload_chunk, delete_files, get, metrics, and (restricted to the
// configured index principal) c2c_sync_index.
type BucketHandler struct {
	store         *bucketstore.Store
	auth          *svcauth.Service
	indexPrincipal svcauth.Principal
}

// NewBucketHandler creates a BucketHandler. indexPrincipal names the only
// caller c2c_sync_index will accept.
func NewBucketHandler(store *bucketstore.Store, auth *svcauth.Service, indexPrincipal svcauth.Principal) *BucketHandler {
	return &BucketHandler{store: store, auth: auth, indexPrincipal: indexPrincipal}
}

// Routes mounts the bucket's endpoints onto r.
func (h *BucketHandler) Routes(r chi.Router) {
	r.Post("/files/{file_id}/chunks", h.UploadChunk)
	r.Delete("/files", h.DeleteFiles)
	r.Get("/files/{file_id}", h.GetFile)
	r.Get("/metrics", h.Metrics)
	r.Post("/sync", h.SyncIndex)
}

// UploadChunk handles POST /files/{file_id}/chunks (upload_chunk).
func (h *BucketHandler) UploadChunk(w http.ResponseWriter, r *http.Request) {
	fileID, err := ids.ParseFileId(chi.URLParam(r, "file_id"))
	if err != nil {
		BadRequest(w, "invalid file_id")
		return
	}

	var req UploadChunkRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	req.FileID = fileID

	result, err := h.store.PutChunk(bucketstore.PutChunkArgs{
		UploadedBy: req.UploadedBy,
		FileId:     req.FileID,
		Hash:       req.Hash,
		MimeType:   req.MimeType,
		Accessors:  req.Accessors,
		ChunkIndex: req.ChunkIndex,
		ChunkSize:  req.ChunkSize,
		TotalSize:  req.TotalSize,
		Bytes:      req.Bytes,
		Now:        time.Now(),
	})
	if err != nil {
		handleStoreError(w, err)
		return
	}

	WriteJSONOK(w, PutChunkResultResponse{
		FileCompleted: result.FileCompleted,
		FileAdded:     result.FileAdded,
	})
}

// DeleteFiles handles DELETE /files (delete_files). The caller's identity
// comes from the X-User-Id header rather than a URL param since the body
// names a batch of files, each independently authorized against its uploader.
func (h *BucketHandler) DeleteFiles(w http.ResponseWriter, r *http.Request) {
	var req DeleteFilesRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	uploadedBy, err := requestorUserID(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	resp := DeleteFilesResponse{}
	for _, fileID := range req.FileIDs {
		if _, err := h.store.RemoveFile(uploadedBy, fileID); err != nil {
			status, detail := mapStoreError(err)
			reason := detail
			if status == http.StatusNotFound {
				reason = "NotFound"
			} else if status == http.StatusForbidden {
				reason = "NotAuthorized"
			}
			resp.Failures = append(resp.Failures, DeleteFileFailure{FileID: fileID, Reason: reason})
			continue
		}
		resp.Success = append(resp.Success, fileID)
	}

	WriteJSONOK(w, resp)
}

// GetFile handles GET /files/{file_id} (get).
func (h *BucketHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := ids.ParseFileId(chi.URLParam(r, "file_id"))
	if err != nil {
		BadRequest(w, "invalid file_id")
		return
	}

	file, err := h.store.Get(fileID)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	WriteJSONOK(w, toGetFileResponse(file))
}

// Metrics handles GET /metrics (metrics).
func (h *BucketHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, toMetricsResponse(h.store.Metrics()))
}

// SyncIndex handles POST /sync (c2c_sync_index). Only the configured index
// principal may call this — everything else gets 403, per §6.
func (h *BucketHandler) SyncIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.RequirePrincipal(bearerToken(r), h.indexPrincipal); err != nil {
		Forbidden(w, "caller is not the configured index")
		return
	}

	var req SyncIndexRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	var removed []bucketstore.FileRemoved
	for _, event := range req.Events {
		switch event.Kind {
		case "user_added":
			h.store.ApplyUserAdded(event.UserID)
		case "user_removed":
			removed = append(removed, h.store.ApplyUserRemoved(event.UserID)...)
		case "accessor_removed":
			removed = append(removed, h.store.ApplyAccessorRemoved(event.AccessorID)...)
		default:
			BadRequest(w, "unknown sync event kind: "+event.Kind)
			return
		}
	}

	// §4.3 caps one batch's inline response at MaxEventsPerBatch. Every
	// FileRemoved above already enqueued its own BlobReferenceRemoved onto
	// h.store's IndexSyncState outbox as part of removeFileLocked, so the
	// tail beyond the cap needs no separate spillover: it drains on the
	// outbox's normal reconcile schedule instead of riding this response.
	if len(removed) > reconcile.MaxEventsPerBatch {
		removed = removed[:reconcile.MaxEventsPerBatch]
	}

	WriteJSONOK(w, SyncIndexResponse{FilesRemoved: removed})
}
