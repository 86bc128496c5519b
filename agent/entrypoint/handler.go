// Package entrypoint adapts the hosting runtimes (HTTP and AWS Lambda) to the
// request dispatcher.
package entrypoint

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	identityx "github.com/tanpawarit/multimodal-travel-agent/agent/identity"
)

const (
	HeaderRequestID        = "X-Amzn-Bedrock-AgentCore-Runtime-Request-Id"
	HeaderGenericRequestID = "X-Request-Id"

	healthyStatus = "Healthy"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, req contractx.Request, meta contractx.Metadata) (contractx.Response, error)
}

type Handler struct {
	dispatcher Dispatcher
}

func NewHandler(d Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

func (h *Handler) Register(e *echo.Echo) {
	e.POST("/invocations", h.Invoke)
	e.GET("/ping", h.Ping)
}

func (h *Handler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": healthyStatus})
}

func (h *Handler) Invoke(c echo.Context) error {
	var req contractx.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, contractx.Response{Result: "Error: invalid request body"})
	}

	meta := metadataFromHTTP(c.Request())
	ctx := withRequestLogger(c.Request().Context(), meta)

	resp, err := h.dispatcher.Dispatch(ctx, req, meta)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse(err))
	}
	return c.JSON(http.StatusOK, resp)
}

func metadataFromHTTP(r *http.Request) contractx.Metadata {
	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	meta := contractx.Metadata{
		RequestID: strings.TrimSpace(r.Header.Get(HeaderRequestID)),
		SessionID: strings.TrimSpace(r.Header.Get(identityx.HeaderSessionID)),
		Headers:   headers,
	}
	if meta.RequestID == "" {
		meta.RequestID = strings.TrimSpace(r.Header.Get(HeaderGenericRequestID))
	}
	if meta.RequestID == "" {
		meta.RequestID = uuid.NewString()
	}
	return meta
}

func withRequestLogger(ctx context.Context, meta contractx.Metadata) context.Context {
	logger := log.With().Str("request_id", meta.RequestID).Logger()
	return logger.WithContext(ctx)
}

func errorResponse(err error) contractx.Response {
	return contractx.Response{Result: "Error: " + err.Error()}
}
