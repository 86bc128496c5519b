package contract

import "testing"

type stringerValue struct{}

func (stringerValue) String() string { return "custom" }

func TestNormalizeResult(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   AgentResult
		want string
	}{
		{
			name: "structured first text block",
			in: StructuredMessage{
				Role:    "assistant",
				Content: []ContentBlock{{Type: BlockText, Text: "Paris"}, {Type: BlockText, Text: "Lyon"}},
			},
			want: "Paris",
		},
		{
			name: "structured first block is not text",
			in: StructuredMessage{
				Role:    "assistant",
				Content: []ContentBlock{{Type: BlockImage}, {Type: BlockText, Text: "a beach in Bali"}},
			},
			want: "a beach in Bali",
		},
		{
			name: "structured empty content",
			in:   StructuredMessage{Role: "assistant"},
			want: "",
		},
		{
			name: "pointer structured",
			in:   &StructuredMessage{Content: []ContentBlock{{Type: BlockText, Text: "Rome"}}},
			want: "Rome",
		},
		{
			name: "plain text",
			in:   PlainText("Try the night market in Taipei."),
			want: "Try the night market in Taipei.",
		},
		{
			name: "opaque value",
			in:   Opaque{Value: 42},
			want: "42",
		},
		{
			name: "opaque stringer",
			in:   Opaque{Value: stringerValue{}},
			want: "custom",
		},
		{
			name: "nil result",
			in:   nil,
			want: "",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeResult(tc.in); got != tc.want {
				t.Fatalf("NormalizeResult() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMetadataHeaderCaseInsensitive(t *testing.T) {
	t.Parallel()

	meta := Metadata{Headers: map[string]string{"x-amzn-bedrock-agentcore-runtime-custom-actor-id": "user-7"}}
	if got := meta.Header("X-Amzn-Bedrock-AgentCore-Runtime-Custom-Actor-Id"); got != "user-7" {
		t.Fatalf("Header() = %q", got)
	}
	if got := meta.Header("missing"); got != "" {
		t.Fatalf("Header(missing) = %q", got)
	}
}
