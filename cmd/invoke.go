package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	identityx "github.com/tanpawarit/multimodal-travel-agent/agent/identity"
)

const maxInvokeMediaBytes = 20 << 20

type invokeOptions struct {
	url       string
	prompt    string
	image     string
	video     string
	sessionID string
	actorID   string
	timeout   time.Duration
}

func invokeCmd() *cobra.Command {
	opts := invokeOptions{}

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Send one request to a running agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildInvokeRequest(opts)
			if err != nil {
				return err
			}
			if opts.sessionID == "" {
				opts.sessionID = uuid.NewString()
			}
			if opts.actorID == "" {
				opts.actorID = "cli-" + uuid.NewString()[:8]
			}

			resp, err := postInvocation(cmd, opts, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Result)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "http://localhost:8080/invocations", "invocation endpoint")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "message text")
	cmd.Flags().StringVar(&opts.image, "image", "", "path to an image to attach")
	cmd.Flags().StringVar(&opts.video, "video", "", "path to a video to attach")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "session id (random when empty)")
	cmd.Flags().StringVar(&opts.actorID, "actor", "", "actor id (random when empty)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "request timeout")
	cmd.MarkFlagsMutuallyExclusive("image", "video")
	return cmd
}

func buildInvokeRequest(opts invokeOptions) (contractx.Request, error) {
	req := contractx.Request{Prompt: opts.prompt}

	path, kind := opts.image, contractx.MediaImage
	if opts.video != "" {
		path, kind = opts.video, contractx.MediaVideo
	}
	if path == "" {
		return req, nil
	}

	data, err := readMediaFile(path)
	if err != nil {
		return contractx.Request{}, err
	}
	req.Media = &contractx.Media{
		Type:   kind,
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Data:   base64.StdEncoding.EncodeToString(data),
	}
	return req, nil
}

func readMediaFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxInvokeMediaBytes {
		return nil, fmt.Errorf("%s is %d bytes; media is limited to %d bytes", path, info.Size(), maxInvokeMediaBytes)
	}
	return os.ReadFile(path)
}

func postInvocation(cmd *cobra.Command, opts invokeOptions, req contractx.Request) (contractx.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return contractx.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, opts.url, bytes.NewReader(body))
	if err != nil {
		return contractx.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(identityx.HeaderSessionID, opts.sessionID)
	httpReq.Header.Set(identityx.HeaderActorID, opts.actorID)

	client := &http.Client{Timeout: opts.timeout}
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return contractx.Response{}, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return contractx.Response{}, err
	}

	var out contractx.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return contractx.Response{}, fmt.Errorf("decode response (status %d): %w", httpResp.StatusCode, err)
	}
	if httpResp.StatusCode >= http.StatusBadRequest {
		return out, errors.New(out.Result)
	}
	return out, nil
}
