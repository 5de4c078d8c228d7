// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/george-dekermenjian/glassbox/services/portfolio/datatypes"
	"github.com/george-dekermenjian/glassbox/services/portfolio/tools"
)

// startedAt anchors the uptime reported by the health endpoint.
var startedAt = time.Now()

// HandleHealth reports service liveness for load balancer checks.
func HandleHealth(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, datatypes.HealthResponse{
			Status:        "ok",
			Service:       serviceName,
			Version:       version,
			UptimeSeconds: time.Since(startedAt).Seconds(),
			Timestamp:     time.Now().UnixMilli(),
		})
	}
}

// HandleAPIInfo describes the service surface at the root path.
func HandleAPIInfo(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, datatypes.APIInfoResponse{
			Service: serviceName,
			Version: version,
			Endpoints: map[string]string{
				"POST /chat":   "streaming chat with brain log frames (SSE)",
				"GET /health":  "liveness check",
				"GET /profile": "static profile dataset",
				"GET /metrics": "Prometheus metrics",
			},
		})
	}
}

// HandleProfile serves the static profile dataset directly, bypassing the
// agent, for clients that render the resume view without a conversation.
func HandleProfile(profile *tools.Profile) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, profile)
	}
}
