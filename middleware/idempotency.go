package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"kondapalli/db"
	"kondapalli/models"
	"kondapalli/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore persists the first response seen for each key.
type IdempotencyStore interface {
	Claim(ctx context.Context, rec models.IdempotencyRecord) error
	Find(ctx context.Context, key string) (*models.IdempotencyRecord, error)
	SaveResponse(ctx context.Context, key string, response map[string]interface{}) error
	Release(ctx context.Context, key string) error
}

func computeRequestHash(r *http.Request, bodyBytes []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + userID + ":"))
	h.Write(bodyBytes)
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter wraps http.ResponseWriter to capture status and body.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

// Idempotent makes a mutating endpoint safe to retry when the client sends an
// Idempotency-Key header:
//   - no header: pass-through.
//   - first use of a key: run the handler and store its response.
//   - replay with the same body: return the stored response.
//   - replay with a different body, or while the first call is still
//     running: 409.
//
// Server errors release the key so the request may be retried.
func Idempotent(store IdempotencyStore, logger *zap.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next(w, r, ps)
				return
			}

			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, "failed to read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			userID := utils.GetUserIDFromRequest(r)
			reqHash := computeRequestHash(r, bodyBytes, userID)
			now := time.Now()
			rec := models.IdempotencyRecord{
				Key:         key,
				Method:      r.Method,
				Path:        r.URL.Path,
				UserID:      userID,
				RequestHash: reqHash,
				CreatedAt:   now,
				ExpiresAt:   now.Add(idempotencyTTL),
			}

			ctx := r.Context()
			err = store.Claim(ctx, rec)
			if err == nil {
				cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
				next(cw, r, ps)

				if cw.status >= http.StatusInternalServerError {
					if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
						logger.Warn("release idempotency key", zap.String("key", key), zap.Error(err))
					}
					return
				}

				var parsed interface{}
				if err := json.Unmarshal(cw.buf.Bytes(), &parsed); err != nil {
					parsed = cw.buf.String()
				}
				resp := map[string]interface{}{"status": cw.status, "body": parsed}
				if err := store.SaveResponse(context.WithoutCancel(ctx), key, resp); err != nil {
					logger.Warn("save idempotent response", zap.String("key", key), zap.Error(err))
				}
				return
			}

			if !errors.Is(err, db.ErrDuplicate) {
				logger.Error("idempotency claim", zap.Error(err))
				utils.RespondWithError(w, http.StatusInternalServerError, "idempotency lookup error")
				return
			}

			existing, err := store.Find(ctx, key)
			if err != nil {
				logger.Error("idempotency lookup", zap.Error(err))
				utils.RespondWithError(w, http.StatusInternalServerError, "idempotency lookup error")
				return
			}
			if existing.RequestHash != reqHash {
				utils.RespondWithError(w, http.StatusConflict, "Idempotency-Key was used with a different request")
				return
			}
			if existing.Response == nil {
				utils.RespondWithError(w, http.StatusConflict, "A request with this Idempotency-Key is still in progress")
				return
			}

			w.Header().Set("Idempotent-Replayed", "true")
			utils.RespondWithJSON(w, storedStatus(existing.Response["status"]), existing.Response["body"])
		}
	}
}

// storedStatus reads a status code that may have round-tripped through BSON or JSON.
func storedStatus(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return http.StatusOK
}
