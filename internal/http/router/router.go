package router

import (
	"github.com/gin-gonic/gin"

	"github.com/megumi-soft/slack-chatgpt/internal/http/handler/webhook"
	"github.com/megumi-soft/slack-chatgpt/internal/http/middleware"
)

type RouterConfig struct {
	// SlackSigningSecret enables request signature verification on /slack when set.
	SlackSigningSecret string
}

func SetupRoutes(router *gin.Engine, slackHandler *webhook.SlackWebhookHandler, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	slack := router.Group("/slack")
	if cfg.SlackSigningSecret != "" {
		slack.Use(middleware.SlackSignature(cfg.SlackSigningSecret))
	}
	SlackRouter(slack, slackHandler)
}
