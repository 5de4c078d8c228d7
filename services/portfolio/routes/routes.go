// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/george-dekermenjian/glassbox/services/portfolio/agent"
	"github.com/george-dekermenjian/glassbox/services/portfolio/config"
	"github.com/george-dekermenjian/glassbox/services/portfolio/handlers"
	"github.com/george-dekermenjian/glassbox/services/portfolio/tools"
)

func SetupRoutes(router *gin.Engine, runtime agent.Runtime, profile *tools.Profile) {
	router.GET("/", handlers.HandleAPIInfo(config.ServiceName, config.Version))
	router.GET("/health", handlers.HandleHealth(config.ServiceName, config.Version))
	router.GET("/profile", handlers.HandleProfile(profile))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/chat", handlers.NewStreamingChatHandler(runtime).HandleChatStream)
}
