package entrypoint

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	identityx "github.com/tanpawarit/multimodal-travel-agent/agent/identity"
)

type fakeDispatcher struct {
	resp contractx.Response
	err  error

	req  contractx.Request
	meta contractx.Metadata
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req contractx.Request, meta contractx.Metadata) (contractx.Response, error) {
	f.req = req
	f.meta = meta
	return f.resp, f.err
}

func newTestServer(d Dispatcher) *echo.Echo {
	return NewServer(ServerConfig{BodyLimit: "1K"}, NewHandler(d)).Echo()
}

func TestPing(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeDispatcher{})
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Healthy"}`, rec.Body.String())
}

func TestInvokeReturnsResult(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{resp: contractx.Response{Result: "Visit Hoi An in February."}}
	e := newTestServer(d)

	body := `{"prompt":"When should I visit Vietnam?","media":{"type":"image","format":"png","data":"aGk="}}`
	req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(identityx.HeaderSessionID, "sess-77")
	req.Header.Set(identityx.HeaderActorID, "user-3")
	req.Header.Set(HeaderRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"Visit Hoi An in February."}`, rec.Body.String())

	assert.Equal(t, "When should I visit Vietnam?", d.req.Prompt)
	require.NotNil(t, d.req.Media)
	assert.Equal(t, contractx.MediaImage, d.req.Media.Type)
	assert.Equal(t, "png", d.req.Media.Format)
	assert.Equal(t, "sess-77", d.meta.SessionID)
	assert.Equal(t, "req-1", d.meta.RequestID)
	assert.Equal(t, "user-3", d.meta.Header(identityx.HeaderActorID))
}

func TestInvokeGeneratesRequestID(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{resp: contractx.Response{Result: "ok"}}
	e := newTestServer(d)

	req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(`{"prompt":"hello there"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, d.meta.RequestID)
	assert.Empty(t, d.meta.SessionID)
}

func TestInvokeDispatchErrorIs500(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{err: errors.New("model invoke failed: boom")}
	e := newTestServer(d)

	req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(`{"prompt":"plan my trip"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"result":"Error: model invoke failed: boom"}`, rec.Body.String())
}

func TestInvokeRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeDispatcher{})
	req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(`{"prompt":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error: invalid request body")
}

func TestInvokeBodyLimit(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{}
	e := newTestServer(d)

	body := `{"prompt":"` + strings.Repeat("a", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, d.req.Prompt)
}

func TestHandleEvent(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{resp: contractx.Response{Result: "Pack layers for Patagonia."}}
	h := NewHandler(d)

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "aws-req-5"})
	resp, err := h.HandleEvent(ctx, Event{
		Prompt:    "What should I pack?",
		SessionID: "sess-12",
		ActorID:   "user-8",
		Headers:   map[string]string{"X-Custom": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pack layers for Patagonia.", resp.Result)

	assert.Equal(t, "aws-req-5", d.meta.RequestID)
	assert.Equal(t, "sess-12", d.meta.SessionID)
	assert.Equal(t, "user-8", d.meta.Header(identityx.HeaderActorID))
	assert.Equal(t, "1", d.meta.Header("X-Custom"))
	assert.Equal(t, "What should I pack?", d.req.Prompt)
}

func TestHandleEventPropagatesError(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{err: contractx.ErrMediaDecode}
	h := NewHandler(d)

	_, err := h.HandleEvent(context.Background(), Event{Media: &contractx.Media{Type: contractx.MediaImage, Data: "??"}})
	require.ErrorIs(t, err, contractx.ErrMediaDecode)
	assert.NotEmpty(t, d.meta.RequestID)
}
