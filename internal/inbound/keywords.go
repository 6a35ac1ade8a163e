package inbound

import "strings"

// Accept/decline vocabulary is deliberately tiny: only an exact Y/N style
// reply may bind a booking. Everything else burns the slot.
var acceptReplies = map[string]bool{"y": true, "yes": true}
var declineReplies = map[string]bool{"n": true, "no": true}

// Follow-up check-in vocabulary from the provider completion check.
const (
	completedKeyword = "completed"
	issueKeyword     = "issue"
)

// cancellationSignals are scanned as substrings of the lowercased message.
// This is a fixed list, not intent detection; see the test corpus for the
// accepted false-positive surface.
var cancellationSignals = []string{
	"cancel",
	"reschedul",
	"postpone",
	"rain check",
	"can't make",
	"cant make",
	"cannot make",
	"won't be able",
	"wont be able",
	"something came up",
	"emergency",
	"need to change",
	"have to move",
	"so sorry",
}

// reactionArtifacts are transport noise (tapback notifications, bare
// reaction glyphs) that carry no semantic content and are dropped before
// classification.
var reactionPrefixes = []string{
	`liked "`,
	`loved "`,
	`disliked "`,
	`laughed at "`,
	`emphasized "`,
	`questioned "`,
}

var reactionGlyphs = map[string]bool{
	"❤️": true, "❤": true, "👍": true, "👎": true, "🙏": true, "😂": true, "‼️": true, "❓": true,
}

func normalizeBody(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func isAccept(body string) bool  { return acceptReplies[body] }
func isDecline(body string) bool { return declineReplies[body] }

func isCompletionAck(body string) bool { return body == completedKeyword }
func isIssueAck(body string) bool      { return body == issueKeyword }

// hasCancellationSignal reports whether the message reads like a
// cancellation or reschedule request.
func hasCancellationSignal(body string) bool {
	for _, signal := range cancellationSignals {
		if strings.Contains(body, signal) {
			return true
		}
	}
	return false
}

// isTransportArtifact reports whether the body is a reaction notification or
// bare reaction glyph rather than a message.
func isTransportArtifact(body string) bool {
	if body == "" {
		return true
	}
	if reactionGlyphs[body] {
		return true
	}
	for _, prefix := range reactionPrefixes {
		if strings.HasPrefix(body, prefix) {
			return true
		}
	}
	return false
}
