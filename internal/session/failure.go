package session

import (
	"github.com/ent0n29/aimaster/internal/protocol"
	"github.com/ent0n29/aimaster/internal/reliability"
)

const (
	quotaReplyText = "⚠️ **Server Busy (High Traffic)**\n\n" +
		"The AI is currently overloaded (quota exceeded). This happens when many people use the free tier at once.\n\n" +
		"**Please wait 1 minute and try again.**"
	networkReplyText = "⚠️ Network connection error. Please check your internet or try again."
)

// FailureReply converts a backend error into the assistant turn shown in its place.
func FailureReply(err error) protocol.Reply {
	if reliability.Classify(err) == reliability.FailureQuota {
		return protocol.Reply{Answer: quotaReplyText, Suggestions: []string{"Wait 1 Minute", "Try Again"}}
	}
	return protocol.Reply{Answer: networkReplyText, Suggestions: []string{"Retry"}}
}
