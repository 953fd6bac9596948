package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"foldersort/internal/archive"
	"foldersort/internal/logging"
	"foldersort/internal/staging"
)

const multipartMemory = 32 << 20

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	logger := logging.WithContext(r.Context(), s.logger)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		s.writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part without a filename is parsed as a plain form value.
		if _, present := r.MultipartForm.Value["file"]; present {
			s.writeError(w, http.StatusBadRequest, "No selected file")
			return
		}
		s.writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.writeError(w, http.StatusBadRequest, "No selected file")
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		s.writeError(w, http.StatusBadRequest, "Invalid file type. Please upload a ZIP archive.")
		return
	}
	name := archive.SecureFilename(header.Filename)
	if name == "" || !strings.HasSuffix(strings.ToLower(name), ".zip") || archive.StemName(name) == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid file name.")
		return
	}

	job, err := staging.NewJob(s.cfg.Paths.WorkDir)
	if err != nil {
		logger.Error("job directory not created", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not stage upload")
		return
	}
	defer func() {
		if err := job.Cleanup(); err != nil {
			logging.WarnWithContext(logger, "job directory not removed", "staging_cleanup_failed",
				logging.String("path", job.Dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "disk space not reclaimed until stale cleanup"),
			)
		}
	}()

	uploadPath := job.UploadPath(name)
	if err := saveUpload(file, uploadPath); err != nil {
		logger.Error("upload not saved", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	result, err := s.sorter.SortArchive(r.Context(), job, uploadPath, name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out, err := os.Open(result.Output)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer out.Close()
	info, err := out.Stat()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(result.Output)))
	h.Set("Content-Length", fmt.Sprint(info.Size()))
	h.Set("X-Run-ID", result.RunID)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, out); err != nil {
		logger.Warn("sorted archive not fully delivered", logging.Error(err))
	}
}

func saveUpload(src multipart.File, dst string) error {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
