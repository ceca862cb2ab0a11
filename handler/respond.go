package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/stevemurr/vitrine/schema"
	"github.com/stevemurr/vitrine/store"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// fail maps a service error onto a response. Validation and lookup
// failures carry their own message; anything else is an internal error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *store.InvalidError
	var notFound *store.NotFoundError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Reason)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Reason)
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Erreur interne")
	}
}

// decodeBody reads a JSON or form body, checks it against s and decodes it
// into dst. Every failure is an *store.InvalidError.
func decodeBody(r *http.Request, s *schema.Schema, dst any) error {
	payload, err := readPayload(r)
	if err != nil {
		return err
	}
	if err := schema.Validate(s, payload); err != nil {
		return store.Invalid("Donnees invalides: " + err.Error())
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return store.Invalid("Donnees invalides: " + err.Error())
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return store.Invalid("Donnees invalides: " + err.Error())
	}
	return nil
}

func readPayload(r *http.Request) (any, error) {
	defer r.Body.Close()
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, store.Invalid("Formulaire invalide: " + err.Error())
		}
		return formPayload(r.PostForm), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, store.Invalid("Formulaire invalide: " + err.Error())
		}
		return formPayload(r.MultipartForm.Value), nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, store.Invalid("Corps de requete illisible: " + err.Error())
	}
	if strings.TrimSpace(string(raw)) == "" {
		return map[string]any{}, nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, store.Invalid("JSON invalide: " + err.Error())
	}
	return payload, nil
}

// formPayload turns form values into the shape a JSON body would have:
// repeated fields become arrays.
func formPayload(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			out[k] = vs[0]
		default:
			items := make([]any, len(vs))
			for i, v := range vs {
				items[i] = v
			}
			out[k] = items
		}
	}
	return out
}
