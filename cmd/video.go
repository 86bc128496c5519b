package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	videox "github.com/tanpawarit/multimodal-travel-agent/agent/video"
	bedrockx "github.com/tanpawarit/multimodal-travel-agent/agent/video/bedrock"
	tlx "github.com/tanpawarit/multimodal-travel-agent/agent/video/twelvelabs"
)

func videoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Run the standalone video analysis tools",
	}
	cmd.AddCommand(videoBedrockCmd())
	cmd.AddCommand(videoTwelveLabsCmd())
	return cmd
}

func printVideoResponse(cmd *cobra.Command, resp videox.ToolResponse) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("video tool returned status %s", resp.Status)
	}
	return nil
}

func videoBedrockCmd() *cobra.Command {
	var in bedrockx.Input
	var temperature float64

	cmd := &cobra.Command{
		Use:   "bedrock",
		Short: "Analyze or list videos with Pegasus on Amazon Bedrock",
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := newBedrockTool(cmd.Context(), afero.NewOsFs())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("temperature") {
				in.Temperature = &temperature
			}
			return printVideoResponse(cmd, tool.Run(cmd.Context(), in))
		},
	}

	cmd.Flags().StringVar(&in.Action, "action", bedrockx.ActionAnalyze, "analyze, search_bucket or list_videos")
	cmd.Flags().StringVar(&in.VideoPath, "video-path", "", "local file or s3:// uri")
	cmd.Flags().StringVar(&in.Prompt, "prompt", "", "question about the video")
	cmd.Flags().StringVar(&in.BucketName, "bucket", "", "bucket override")
	cmd.Flags().StringVar(&in.VideoFilter, "filter", "", "case-insensitive key filter")
	cmd.Flags().Float64Var(&temperature, "temperature", videox.DefaultTemperature, "model temperature")
	return cmd
}

func videoTwelveLabsCmd() *cobra.Command {
	var in tlx.Input
	var temperature float64

	cmd := &cobra.Command{
		Use:   "twelvelabs",
		Short: "Upload, query or list videos with TwelveLabs",
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := newTwelveLabsTool(afero.NewOsFs())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("temperature") {
				in.Temperature = &temperature
			}
			return printVideoResponse(cmd, tool.Run(cmd.Context(), in))
		},
	}

	cmd.Flags().StringVar(&in.Action, "action", tlx.ActionListVideos, "upload, query, list_videos or search")
	cmd.Flags().StringVar(&in.VideoPath, "video-path", "", "local file or http(s) url; the video id for query")
	cmd.Flags().StringVar(&in.VideoName, "video-name", "", "name for an uploaded video")
	cmd.Flags().StringVar(&in.Prompt, "prompt", "", "question about the video")
	cmd.Flags().StringVar(&in.IndexName, "index", "", "index name override")
	cmd.Flags().StringVar(&in.Query, "query", "", "search text")
	cmd.Flags().Float64Var(&temperature, "temperature", videox.DefaultTemperature, "model temperature")
	return cmd
}
