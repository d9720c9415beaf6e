package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// snapshotHandler serves the artifact with a content ETag so browsers
// revalidate instead of refetching an unchanged catalog. The gate password
// never leaves the server.
func snapshotHandler(store storage.Provider, path string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := store.Read(path)
		if err != nil {
			logger.Warn("snapshot: read failed", slog.String("path", path), slog.String("error", err.Error()))
			http.NotFound(w, r)
			return
		}
		data, err = redactSnapshot(data)
		if err != nil {
			logger.Error("snapshot: redact failed", slog.String("path", path), slog.String("error", err.Error()))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		etag := checksum.ETag(checksum.Sum(data))
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(data)
	}
}

// redactSnapshot drops the password setting. Artifacts without one are
// returned unchanged.
func redactSnapshot(data []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	raw, ok := doc["settings"]
	if !ok {
		return data, nil
	}
	var settings map[string]json.RawMessage
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if _, ok := settings[models.SettingPassword]; !ok {
		return data, nil
	}
	delete(settings, models.SettingPassword)
	redacted, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	doc["settings"] = redacted
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return out, nil
}

// guardArtifact keeps the static file server from handing out the raw
// artifact under any spelling of its path.
func guardArtifact(next http.Handler, artifact string) http.Handler {
	blocked := path.Clean("/" + artifact)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(path.Clean("/"+r.URL.Path), blocked) {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
