package router

import (
	"github.com/gin-gonic/gin"

	"github.com/megumi-soft/slack-chatgpt/internal/http/handler/webhook"
)

func SlackRouter(router *gin.RouterGroup, handler *webhook.SlackWebhookHandler) {
	router.POST("/events", handler.HandleEvent)
}
