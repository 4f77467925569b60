package httpapi

import (
	"io"
	"net/http"
)

// backups are opaque encrypted blobs on the wire, downloaded and uploaded
// as application/octet-stream.

const maxBackupSize = 64 << 20 // 64 MiB

func (s *Server) handleBackupExport(w http.ResponseWriter, r *http.Request) {
	sealed, err := s.backups.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="backup.enc"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(sealed)
}

func (s *Server) handleBackupImport(w http.ResponseWriter, r *http.Request) {
	sealed, err := io.ReadAll(io.LimitReader(r.Body, maxBackupSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading backup body"})
		return
	}

	if err := s.backups.Import(r.Context(), sealed); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

func (s *Server) handleBackupExportS3(w http.ResponseWriter, r *http.Request) {
	key, err := s.backups.ExportToS3(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

type backupImportS3Request struct {
	Key string `json:"key"`
}

func (s *Server) handleBackupImportS3(w http.ResponseWriter, r *http.Request) {
	req := &backupImportS3Request{}
	if err := decodeJSON(r, req); err != nil || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := s.backups.ImportFromS3(r.Context(), req.Key); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}
