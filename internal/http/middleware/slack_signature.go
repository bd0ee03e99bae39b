package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	slackapi "github.com/slack-go/slack"
)

// Slack event payloads are a few KiB; larger bodies are refused before hashing.
const maxSlackBodyBytes = 1 << 20

// SlackSignature verifies Slack's v0 request signature over the raw body.
// The body is restored for downstream handlers.
func SlackSignature(signingSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// Checks both headers and rejects timestamps more than five minutes off.
		verifier, err := slackapi.NewSecretsVerifier(c.Request.Header, signingSecret)
		if err != nil {
			slog.WarnContext(ctx, "slack request rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid slack signature headers"})
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSlackBodyBytes))
		if err != nil {
			slog.WarnContext(ctx, "failed to read slack request body", "error", err)
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if _, err := verifier.Write(body); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to verify request"})
			return
		}
		if err := verifier.Ensure(); err != nil {
			slog.WarnContext(ctx, "slack signature mismatch")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid slack signature"})
			return
		}

		c.Next()
	}
}
