// Package bedrock analyzes videos with the Pegasus model on Amazon Bedrock.
// Local files are staged in S3 first, since the model only reads s3:// URIs.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	videox "github.com/tanpawarit/multimodal-travel-agent/agent/video"
)

const (
	ActionAnalyze      = "analyze"
	ActionSearchBucket = "search_bucket"
	ActionListVideos   = "list_videos"

	s3Scheme      = "s3://"
	videoKeyDir   = "videos/"
	maxListedKeys = 100
)

type Config struct {
	Region      string  `envconfig:"AWS_REGION" default:"us-east-1"`
	BucketName  string  `envconfig:"S3_BUCKET_NAME" default:"strands-agents-samples"`
	ModelID     string  `envconfig:"BEDROCK_VIDEO_MODEL_ID" default:"twelvelabs.pegasus-1-2-v1:0"`
	Temperature float64 `envconfig:"BEDROCK_VIDEO_TEMPERATURE" default:"0.2"`
}

type S3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type ModelInvoker interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type IdentityAPI interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, opts ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Clients groups the AWS APIs the tool talks to.
type Clients struct {
	S3       S3API
	Uploader Uploader
	Model    ModelInvoker
	Identity IdentityAPI
}

// NewClients builds the AWS clients from a loaded aws.Config.
func NewClients(awsCfg aws.Config) Clients {
	s3Client := s3.NewFromConfig(awsCfg)
	return Clients{
		S3:       s3Client,
		Uploader: manager.NewUploader(s3Client),
		Model:    bedrockruntime.NewFromConfig(awsCfg),
		Identity: sts.NewFromConfig(awsCfg),
	}
}

// Input mirrors the tool arguments exposed to the model.
type Input struct {
	Action      string   `json:"action"`
	VideoPath   string   `json:"video_path,omitempty"`
	Prompt      string   `json:"prompt,omitempty"`
	BucketName  string   `json:"bucket_name,omitempty"`
	VideoFilter string   `json:"video_filter,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type Tool struct {
	cfg     Config
	clients Clients
	fs      afero.Fs
}

var _ videox.Analyzer = (*Tool)(nil)

func New(cfg Config, clients Clients, fs afero.Fs) *Tool {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = "twelvelabs.pegasus-1-2-v1:0"
	}
	return &Tool{cfg: cfg, clients: clients, fs: fs}
}

func (t *Tool) Run(ctx context.Context, in Input) videox.ToolResponse {
	switch strings.TrimSpace(in.Action) {
	case ActionAnalyze:
		temp := t.cfg.Temperature
		if in.Temperature != nil {
			temp = *in.Temperature
		}
		return t.analyze(ctx, in.VideoPath, in.Prompt, in.BucketName, temp)
	case ActionSearchBucket, ActionListVideos:
		return t.listVideos(ctx, in.BucketName, in.VideoFilter)
	default:
		return videox.Failure("Invalid action: %s. Use analyze, search_bucket, or list_videos", in.Action)
	}
}

func (t *Tool) Analyze(ctx context.Context, videoPath, prompt string) videox.ToolResponse {
	return t.analyze(ctx, videoPath, prompt, "", t.cfg.Temperature)
}

type invokeBody struct {
	InputPrompt string      `json:"inputPrompt"`
	MediaSource mediaSource `json:"mediaSource"`
	Temperature float64     `json:"temperature"`
}

type mediaSource struct {
	S3Location s3Location `json:"s3Location"`
}

type s3Location struct {
	URI         string `json:"uri"`
	BucketOwner string `json:"bucketOwner"`
}

type invokeResult struct {
	Message      string `json:"message"`
	FinishReason string `json:"finishReason"`
}

func (t *Tool) analyze(ctx context.Context, videoPath, prompt, bucket string, temperature float64) videox.ToolResponse {
	videoPath = strings.TrimSpace(videoPath)
	prompt = strings.TrimSpace(prompt)
	if videoPath == "" || prompt == "" {
		return videox.Failure("video_path and prompt are required")
	}

	uri := videoPath
	if !strings.HasPrefix(videoPath, s3Scheme) {
		if ok, _ := afero.Exists(t.fs, videoPath); !ok {
			return videox.Failure("Video file not found: %s", videoPath)
		}
		if strings.TrimSpace(bucket) == "" {
			bucket = t.cfg.BucketName
		}

		staged, err := t.upload(ctx, videoPath, bucket)
		if err != nil {
			return videox.Failure("Bedrock analysis failed: %v", err)
		}
		uri = staged
	}

	ident, err := t.clients.Identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return videox.Failure("Bedrock analysis failed: %v", err)
	}

	body, err := json.Marshal(invokeBody{
		InputPrompt: prompt,
		MediaSource: mediaSource{S3Location: s3Location{
			URI:         uri,
			BucketOwner: aws.ToString(ident.Account),
		}},
		Temperature: temperature,
	})
	if err != nil {
		return videox.Failure("Bedrock analysis failed: %v", err)
	}

	out, err := t.clients.Model.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(t.cfg.ModelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return videox.Failure("Bedrock analysis failed: %v", err)
	}

	var res invokeResult
	if err := json.Unmarshal(out.Body, &res); err != nil {
		return videox.Failure("Bedrock analysis failed: decode response: %v", err)
	}
	if res.Message == "" {
		res.Message = "No response"
	}
	if res.FinishReason == "" {
		res.FinishReason = "unknown"
	}

	return videox.Success(map[string]any{
		"video_path":    uri,
		"prompt":        prompt,
		"response":      res.Message,
		"finish_reason": res.FinishReason,
	})
}

// upload copies a local file to s3://bucket/videos/<basename>, creating the
// bucket when it cannot be reached.
func (t *Tool) upload(ctx context.Context, localPath, bucket string) (string, error) {
	if strings.TrimSpace(bucket) == "" {
		return "", errors.New("bucket name is empty")
	}

	t.ensureBucket(ctx, bucket)

	f, err := t.fs.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	key := videoKeyDir + filepath.Base(localPath)
	if _, err := t.clients.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return "", fmt.Errorf("upload to s3://%s/%s: %w", bucket, key, err)
	}

	log.Ctx(ctx).Debug().Str("bucket", bucket).Str("key", key).Msg("video uploaded")
	return s3Scheme + bucket + "/" + key, nil
}

func (t *Tool) ensureBucket(ctx context.Context, bucket string) {
	if _, err := t.clients.S3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err == nil {
		return
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if region := strings.TrimSpace(t.cfg.Region); region != "" && region != "us-east-1" {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(region),
		}
	}
	if _, err := t.clients.S3.CreateBucket(ctx, in); err != nil {
		// The upload reports the real failure if the bucket is unusable.
		log.Ctx(ctx).Warn().Err(err).Str("bucket", bucket).Msg("create bucket failed")
	}
}

type listedVideo struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
	S3URI        string `json:"s3_uri"`
}

func (t *Tool) listVideos(ctx context.Context, bucket, filter string) videox.ToolResponse {
	if strings.TrimSpace(bucket) == "" {
		bucket = t.cfg.BucketName
	}
	if strings.TrimSpace(bucket) == "" {
		return videox.Failure("bucket_name parameter or S3_BUCKET_NAME environment variable required")
	}

	out, err := t.clients.S3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(maxListedKeys),
	})
	if err != nil {
		return videox.Failure("Failed to search bucket: %v", err)
	}

	videos := make([]listedVideo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if !videox.IsVideoKey(key) || !videox.MatchesFilter(key, filter) {
			continue
		}
		v := listedVideo{
			Key:   key,
			Size:  aws.ToInt64(obj.Size),
			S3URI: s3Scheme + bucket + "/" + key,
		}
		if obj.LastModified != nil {
			v.LastModified = obj.LastModified.UTC().Format(time.RFC3339)
		}
		videos = append(videos, v)
	}

	applied := strings.TrimSpace(filter)
	if applied == "" {
		applied = "none"
	}

	return videox.Success(map[string]any{
		"bucket":         bucket,
		"videos":         videos,
		"total_count":    len(videos),
		"filter_applied": applied,
	})
}
