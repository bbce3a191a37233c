package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/opsml/opsml/domain/card"
	"github.com/opsml/opsml/domain/semver"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeRegistryError maps domain errors onto HTTP statuses.
func (h *Handler) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, card.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, card.ErrDuplicateUID), errors.Is(err, card.ErrDuplicateVersion):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, card.ErrAmbiguous):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func registryFromTable(w http.ResponseWriter, table string) (card.RegistryType, bool) {
	rt, err := card.RegistryTypeFromTable(table)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return rt, true
}

// Settings reports the server's storage configuration so proxy-mode
// clients can mirror it.
//
//	@Summary	Storage settings
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/settings [get]
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"storage_type": h.storage.Backend,
		"storage_uri":  h.storage.URI,
		"proxy":        h.storage.Proxy,
	})
}

// CheckUID reports whether a card uid is already registered.
//
//	@Summary	Check uid existence
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	map[string]bool
//	@Router		/check_uid [post]
func (h *Handler) CheckUID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID       string `json:"uid"`
		TableName string `json:"table_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rt, ok := registryFromTable(w, req.TableName)
	if !ok {
		return
	}

	exists, err := h.registry.CheckUID(r.Context(), rt, req.UID)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"uid_exists": exists})
}

// Version reports the version the next registration would receive.
//
//	@Summary	Next card version
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/version [post]
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Team        string `json:"team"`
		VersionType string `json:"version_type"`
		TableName   string `json:"table_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rt, ok := registryFromTable(w, req.TableName)
	if !ok {
		return
	}
	bump, err := semver.ParseBumpType(req.VersionType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	version, err := h.registry.NextVersion(r.Context(), rt, req.Name, req.Team, bump)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": version})
}

// List returns cards matching the filter, newest version first.
//
//	@Summary	List cards
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/list [post]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID       string `json:"uid"`
		Name      string `json:"name"`
		Team      string `json:"team"`
		Version   string `json:"version"`
		Limit     int    `json:"limit"`
		TableName string `json:"table_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rt, ok := registryFromTable(w, req.TableName)
	if !ok {
		return
	}

	records, err := h.registry.List(r.Context(), rt, card.Filter{
		UID:     req.UID,
		Name:    req.Name,
		Team:    req.Team,
		Version: req.Version,
		Limit:   req.Limit,
	})
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, h.rewriteProxyURIs(rec.Map()))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

// rewriteProxyURIs swaps the real storage root for the configured
// proxy root in every URI field, so proxy-mode clients never see paths
// they cannot reach directly.
func (h *Handler) rewriteProxyURIs(m map[string]any) map[string]any {
	if !h.storage.Proxy || h.storage.ProxyRoot == "" {
		return m
	}
	base := h.artifacts.BasePath()
	rewrite := func(s string) string {
		if strings.HasPrefix(s, base) {
			return h.storage.ProxyRoot + strings.TrimPrefix(s, base)
		}
		return s
	}
	for k, v := range m {
		switch {
		case strings.HasSuffix(k, "uri"):
			if s, ok := v.(string); ok {
				m[k] = rewrite(s)
			}
		// Run cards keep named URIs in a map, e.g. artifact_uris.
		case strings.HasSuffix(k, "uris"):
			uris, ok := v.(map[string]any)
			if !ok {
				continue
			}
			for name, u := range uris {
				if s, ok := u.(string); ok {
					uris[name] = rewrite(s)
				}
			}
		}
	}
	return m
}

// Create registers a card. When the record carries no version the
// server assigns the next one inside the registration transaction and
// returns it, which keeps proxy-mode registration atomic.
//
//	@Summary	Register a card
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/create [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Record      map[string]any `json:"record"`
		TableName   string         `json:"table_name"`
		VersionType string         `json:"version_type"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rt, ok := registryFromTable(w, req.TableName)
	if !ok {
		return
	}
	rec, err := card.RecordFromMap(req.Record)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bump, err := semver.ParseBumpType(req.VersionType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	registered, err := h.registry.Register(r.Context(), rt, rec, bump)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registered": true,
		"version":    registered.Version,
		"uid":        registered.UID,
	})
}

// Update rewrites the mutable fields of an existing card.
//
//	@Summary	Update a card
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	map[string]bool
//	@Router		/update [post]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Record    map[string]any `json:"record"`
		TableName string         `json:"table_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rt, ok := registryFromTable(w, req.TableName)
	if !ok {
		return
	}
	rec, err := card.RecordFromMap(req.Record)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.registry.Update(r.Context(), rt, rec); err != nil {
		h.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// ListFiles returns the storage paths under a prefix.
//
//	@Summary	List artifact files
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	map[string][]string
//	@Router		/list_files [post]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReadPath string `json:"read_path"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	files, err := h.artifacts.ListFiles(r.Context(), req.ReadPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"files": files})
}

// DownloadFile streams an artifact file in bounded chunks.
//
//	@Summary	Download an artifact file
//	@Accept		json
//	@Produce	octet-stream
//	@Success	200
//	@Router		/download_file [post]
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReadPath string `json:"read_path"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.streamFile(w, r, req.ReadPath, "")
}

// DownloadModel resolves exactly one model card and streams its model
// artifact with an attachment header.
//
//	@Summary	Download a model artifact
//	@Accept		json
//	@Produce	octet-stream
//	@Success	200
//	@Router		/download_model [post]
func (h *Handler) DownloadModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID     string `json:"uid"`
		Name    string `json:"name"`
		Team    string `json:"team"`
		Version string `json:"version"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := h.registry.LoadOne(r.Context(), card.RegistryModel, card.Filter{
		UID:     req.UID,
		Name:    req.Name,
		Team:    req.Team,
		Version: req.Version,
	})
	if err != nil {
		// Serving bytes for zero or several matches would hand back an
		// arbitrary model, so both cases fail hard.
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("resolve model card: %v", err))
		return
	}

	uri, _ := rec.Contents["model_uri"].(string)
	if uri == "" {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("model card %s has no model_uri", rec.UID))
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(uri)+`"`)
	h.streamFile(w, r, h.storagePath(uri), rec.UID)
}

// storagePath strips the backend base from a stored URI, leaving the
// path the storage client addresses files by.
func (h *Handler) storagePath(uri string) string {
	base := h.artifacts.BasePath()
	if strings.HasPrefix(uri, base) {
		return strings.TrimLeft(strings.TrimPrefix(uri, base), "/")
	}
	return uri
}

func (h *Handler) streamFile(w http.ResponseWriter, r *http.Request, readPath, uid string) {
	it, err := h.artifacts.OpenFile(r.Context(), readPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer it.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	var sent int64
	for {
		chunk, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Headers are gone; the best remaining signal is an
			// aborted stream.
			h.logger.Error().Err(err).Str("path", readPath).Msg("download stream failed")
			return
		}
		if _, err := w.Write(chunk); err != nil {
			h.logger.Debug().Err(err).Str("path", readPath).Msg("client went away mid-download")
			return
		}
		sent += int64(len(chunk))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}

	h.metrics.DownloadBytes.Add(float64(sent))
	h.logger.Info().Str("path", readPath).Str("uid", uid).Int64("bytes", sent).Msg("file downloaded")
}
