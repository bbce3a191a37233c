package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
)

// errFileTooLarge aborts a multipart copy the moment the per-file
// bound is crossed.
var errFileTooLarge = errors.New("file exceeds maximum size")

// boundedReader errors after max bytes instead of truncating, so an
// oversized upload fails rather than silently storing a prefix.
type boundedReader struct {
	r   io.Reader
	max int64
	n   int64
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if b.n >= b.max {
		return 0, errFileTooLarge
	}
	if int64(len(p)) > b.max-b.n {
		p = p[:b.max-b.n]
	}
	n, err := b.r.Read(p)
	b.n += int64(n)
	// A reader may deliver its final bytes together with io.EOF; the
	// bound still wins when those bytes cross it.
	if b.n >= b.max {
		return n, errFileTooLarge
	}
	return n, err
}

// Upload accepts a streamed multipart upload. The Filename and
// WritePath headers address the artifact; the body is piped straight
// to storage, aborting the instant the size bounds are crossed.
//
//	@Summary	Upload an artifact file
//	@Accept		multipart/form-data
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	413	{object}	map[string]string
//	@Failure	422	{object}	map[string]string
//	@Router		/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	filename := r.Header.Get("Filename")
	writePath := r.Header.Get("WritePath")
	if filename == "" || writePath == "" {
		h.metrics.UploadRejected.WithLabelValues("missing_headers").Inc()
		writeError(w, http.StatusUnprocessableEntity, "Filename and WritePath headers are required")
		return
	}

	// The body bound covers multipart framing on top of the file bound.
	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxBodySize)

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart body: "+err.Error())
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			h.uploadError(w, err)
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		// The bound sits one byte above the limit so a file of exactly
		// the maximum size passes and max+1 fails mid-stream. Backends
		// publish on success only, so the aborted write never lands.
		bounded := &boundedReader{r: part, max: h.limits.MaxFileSize + 1}

		uri, err := h.artifacts.PutFile(r.Context(), path.Join(writePath, filename), bounded)
		part.Close()
		if err != nil {
			h.uploadError(w, err)
			return
		}

		h.metrics.UploadBytes.Add(float64(bounded.n))
		h.logger.Info().
			Str("write_path", writePath).
			Str("filename", filename).
			Int64("bytes", bounded.n).
			Msg("file uploaded")
		writeJSON(w, http.StatusOK, map[string]string{"storage_uri": uri})
		return
	}

	writeError(w, http.StatusBadRequest, "multipart body has no file part")
}

func (h *Handler) uploadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, errFileTooLarge):
		h.metrics.UploadRejected.WithLabelValues("file_too_large").Inc()
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the maximum size of %d bytes", h.limits.MaxFileSize))
	case errors.As(err, &maxErr):
		h.metrics.UploadRejected.WithLabelValues("body_too_large").Inc()
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds the maximum size of %d bytes", h.limits.MaxBodySize))
	default:
		h.metrics.UploadRejected.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
