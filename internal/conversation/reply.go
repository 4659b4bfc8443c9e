package conversation

import "strings"

// ReplyKind classifies a message received while awaiting confirmation.
type ReplyKind string

const (
	ReplyAffirmative ReplyKind = "affirmative"
	ReplyNegative    ReplyKind = "negative"
	ReplyOther       ReplyKind = "other"
)

var affirmativeTokens = map[string]bool{
	"yes": true, "y": true, "yup": true, "yeah": true, "sure": true,
	"ok": true, "okay": true, "confirm": true, "do it": true,
	"ya": true, "iya": true, "oke": true, "yakin": true, "betul": true,
	"benar": true, "jadi": true,
}

var negativeTokens = map[string]bool{
	"no": true, "n": true, "nope": true, "cancel": true, "stop": true,
	"tidak": true, "nggak": true, "gak": true, "batal": true,
	"jangan": true, "batalkan": true,
}

// ClassifyReply decides whether a message answers a pending confirmation.
// Anything that is not a clear yes/no is an unrelated message.
func ClassifyReply(text string) ReplyKind {
	token := strings.ToLower(strings.TrimSpace(text))
	token = strings.Trim(token, ".!?,")
	switch {
	case affirmativeTokens[token]:
		return ReplyAffirmative
	case negativeTokens[token]:
		return ReplyNegative
	default:
		return ReplyOther
	}
}

var destructiveHints = []string{
	"hapus semua", "kosongkan", "bersihkan semua", "reset",
	"clear all", "clear everything", "delete all", "delete everything",
	"wipe", "empty the", "start over",
}

// LooksDestructive guards UNKNOWN intents: an utterance the model could not
// classify but that reads like a wipe request must still be confirmed, never
// guessed at or silently dropped into chat.
func LooksDestructive(text string) bool {
	lower := strings.ToLower(text)
	for _, hint := range destructiveHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
