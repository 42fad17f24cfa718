package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetupLevelOverride(t *testing.T) {
	req := require.New(t)
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	logger, err := Setup("warn", false)
	req.NoError(err)
	req.False(logger.Core().Enabled(zapcore.InfoLevel))
	req.True(logger.Core().Enabled(zapcore.WarnLevel))
	req.Same(logger, zap.L())

	_, err = Setup("loud", false)
	req.Error(err)
}

func TestMiddlewareRecoversPanics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(Middleware(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "OK") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok?lastMessageId=x", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	last := entries[1].ContextMap()
	require.Equal(t, "/ok", last["path"])
	require.Equal(t, "lastMessageId=x", last["query"])
	require.EqualValues(t, http.StatusOK, last["status"])
}
