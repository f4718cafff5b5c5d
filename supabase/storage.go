package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

const documentsBucket = "documents"

// SignObjectURL issues a time-limited signed URL for a private storage path.
// Signing failures fall back to the raw path so callers never receive an
// empty URL for a resolved document.
func (c *Client) SignObjectURL(ctx context.Context, storagePath string, ttlSeconds int) string {
	path := "/storage/v1/object/sign/" + documentsBucket + "/" + strings.TrimPrefix(storagePath, "/")

	statusCode, body, err := c.restPost(ctx, path, map[string]any{"expiresIn": ttlSeconds})
	if err != nil {
		logger.Error("failed to sign storage url", zap.String("path", storagePath), zap.Error(err))
		return storagePath
	}
	if statusCode != http.StatusOK {
		logger.Error("failed to sign storage url",
			zap.String("path", storagePath), zap.Int("status", statusCode), zap.String("body", string(body)))
		return storagePath
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.Unmarshal(body, &signed); err != nil || signed.SignedURL == "" {
		logger.Error("failed to parse signed url response", zap.String("path", storagePath), zap.Error(err))
		return storagePath
	}

	return c.baseURL + "/storage/v1" + signed.SignedURL
}
