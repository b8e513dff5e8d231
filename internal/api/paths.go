package api

// GJSON paths into a generateContent response body.
const (
	PathCandidateParts = "candidates.0.content.parts.#.text"
	PathFinishReason   = "candidates.0.finishReason"
	PathBlockReason    = "promptFeedback.blockReason"
	PathErrorMessage   = "error.message"
	PathErrorStatus    = "error.status"
)

// Finish reasons that mean the reply was withheld by content policy
var blockedFinishReasons = map[string]bool{
	"SAFETY":             true,
	"PROHIBITED_CONTENT": true,
	"BLOCKLIST":          true,
	"SPII":               true,
	"RECITATION":         true,
}
