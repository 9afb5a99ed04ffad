package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/returnsdesk/backend/internal/interfaces/http/dto"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping() error {
	return p.err
}

func TestSystemHandlerGetSystemInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewSystemHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/system/info", nil)

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Returns Decision Engine API", data["name"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandlerPing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewSystemHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/system/ping", nil)

	h.Ping(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "pong", data["message"])

	_, err := time.Parse(time.RFC3339, data["timestamp"].(string))
	assert.NoError(t, err)
}

func TestSystemHandlerHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newContext := func(w *httptest.ResponseRecorder) *gin.Context {
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/health", nil)
		return c
	}

	t.Run("database up", func(t *testing.T) {
		h := NewSystemHandler(&fakePinger{})
		w := httptest.NewRecorder()

		h.Health(newContext(w))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"up"`)
	})

	t.Run("database down", func(t *testing.T) {
		h := NewSystemHandler(&fakePinger{err: errors.New("connection refused")})
		w := httptest.NewRecorder()

		h.Health(newContext(w))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	})

	t.Run("no database configured", func(t *testing.T) {
		h := NewSystemHandler(nil)
		w := httptest.NewRecorder()

		h.Health(newContext(w))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})
}
