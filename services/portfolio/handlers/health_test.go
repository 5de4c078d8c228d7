// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/george-dekermenjian/glassbox/services/portfolio/datatypes"
)

func TestHandleHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", HandleHealth("glassbox-portfolio", "0.1.0"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "glassbox-portfolio", resp.Service)
	assert.Equal(t, "0.1.0", resp.Version)
	assert.GreaterOrEqual(t, resp.UptimeSeconds, 0.0)
	assert.Greater(t, resp.Timestamp, int64(0))
}

func TestHandleAPIInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", HandleAPIInfo("glassbox-portfolio", "0.1.0"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.APIInfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "glassbox-portfolio", resp.Service)
	assert.Contains(t, resp.Endpoints, "POST /chat")
	assert.Contains(t, resp.Endpoints, "GET /metrics")
}
