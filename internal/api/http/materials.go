package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-portal/internal/catalog"
	"github.com/mind-engage/mindengage-portal/internal/rbac"
	"github.com/mind-engage/mindengage-portal/internal/storage"
)

// MountMaterials serves course material uploads and downloads under r.
func MountMaterials(r chi.Router, bs storage.BlobStore, svc *catalog.Service) {
	// POST /materials/{entryID}  multipart file= [title=]
	r.With(rbac.Require("material:upload")).Post("/{entryID}", func(w http.ResponseWriter, r *http.Request) {
		entryID := pathParam(r, "entryID")
		if _, ok, err := svc.Entry(r.Context(), entryID); err != nil {
			writeErr(w, r, err)
			return
		} else if !ok {
			http.Error(w, "unknown catalog entry", http.StatusNotFound)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		name := path.Base(strings.ReplaceAll(hdr.Filename, "\\", "/"))
		if name == "." || name == "/" || name == ".." {
			name = "upload.bin"
		}
		key, err := bs.Put("materials/"+entryID+"/"+uuid.NewString()+"-"+name, f)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		title := strings.TrimSpace(r.FormValue("title"))
		if title == "" {
			title = name
		}
		p, err := svc.Patch(r.Context(), catalog.Patch{
			Op:        catalog.OpAddMaterial,
			Key:       entryID,
			Material:  &catalog.Material{Title: title, Key: key},
			Author:    rbac.SubjectFromContext(r.Context()),
			CreatedAt: time.Now().Unix(),
		})
		if err != nil {
			_ = bs.Delete(key)
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	})

	// GET /materials/*  -> the blob at whatever follows /materials/
	r.With(rbac.Require("material:view")).Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
