package contract

import "errors"

var (
	ErrNoMessage     = errors.New("no message provided")
	ErrMediaDecode   = errors.New("media payload is not valid base64")
	ErrMediaStage    = errors.New("media staging failed")
	ErrModelInvoke   = errors.New("model invoke failed")
	ErrMaxSteps      = errors.New("agent exceeded max tool steps")
	ErrAgentBuild    = errors.New("agent construction failed")
	ErrPromptMissing = errors.New("required prompt is missing")
	ErrValidation    = errors.New("validation failed")
)

// NoMessageResult is the reply sent for requests without text or media.
const NoMessageResult = "Error: No message provided"
