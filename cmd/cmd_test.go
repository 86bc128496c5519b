package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	identityx "github.com/tanpawarit/multimodal-travel-agent/agent/identity"
)

func TestRootRegistersCommands(t *testing.T) {
	t.Parallel()

	root := rootCmd()
	for _, name := range []string{"serve", "lambda", "invoke", "memory", "video", "doctor"} {
		found, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, found.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("env"))
}

func TestRuntimeCommandsDocumentAgentCacheMode(t *testing.T) {
	t.Parallel()

	for _, cmd := range []*cobra.Command{serveCmd(), lambdaCmd()} {
		assert.Contains(t, cmd.Long, "AGENT_CACHE_MODE=session", cmd.Name())
		assert.Contains(t, cmd.Long, "AGENT_CACHE_MODE=pinned", cmd.Name())
	}
}

func TestBuildInvokeRequestWithImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "beach.PNG")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	req, err := buildInvokeRequest(invokeOptions{prompt: "Where is this?", image: path})
	require.NoError(t, err)
	require.NotNil(t, req.Media)
	assert.Equal(t, contractx.MediaImage, req.Media.Type)
	assert.Equal(t, "png", req.Media.Format)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), req.Media.Data)
}

func TestBuildInvokeRequestTextOnly(t *testing.T) {
	t.Parallel()

	req, err := buildInvokeRequest(invokeOptions{prompt: "Plan three days in Rome"})
	require.NoError(t, err)
	assert.Nil(t, req.Media)
	assert.Equal(t, "Plan three days in Rome", req.Prompt)
}

func TestReadMediaFileRejectsLargeFiles(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "big.mp4")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(maxInvokeMediaBytes+1))
	require.NoError(t, f.Close())

	_, err = readMediaFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media is limited")
}

func TestPostInvocation(t *testing.T) {
	t.Parallel()

	var gotSession, gotActor string
	var gotBody contractx.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get(identityx.HeaderSessionID)
		gotActor = r.Header.Get(identityx.HeaderActorID)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"Try Kyoto in autumn."}`))
	}))
	defer srv.Close()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	resp, err := postInvocation(cmd, invokeOptions{url: srv.URL, sessionID: "s-1", actorID: "a-1"},
		contractx.Request{Prompt: "Where to in November?"})
	require.NoError(t, err)
	assert.Equal(t, "Try Kyoto in autumn.", resp.Result)
	assert.Equal(t, "s-1", gotSession)
	assert.Equal(t, "a-1", gotActor)
	assert.Equal(t, "Where to in November?", gotBody.Prompt)
}

func TestPostInvocationServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"result":"Error: model invoke failed"}`))
	}))
	defer srv.Close()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	_, err := postInvocation(cmd, invokeOptions{url: srv.URL}, contractx.Request{Prompt: "hello"})
	require.EqualError(t, err, "Error: model invoke failed")
}

func TestNewVideoDeps(t *testing.T) {
	t.Parallel()

	deps, err := newVideoDeps(context.Background(), "none", afero.NewMemMapFs())
	require.NoError(t, err)
	assert.Nil(t, deps.Video)
	assert.NotNil(t, deps.Fs)

	_, err = newVideoDeps(context.Background(), "youtube", afero.NewMemMapFs())
	require.Error(t, err)
}
