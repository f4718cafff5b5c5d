package chat

import (
	"github.com/doczoek/chat-core/llm"
)

// historyFetchLimit is how many messages are loaded from the history store.
const historyFetchLimit = 8

// agentHistoryWindow is how many trailing turns seed the agent message list.
const agentHistoryWindow = 6

// normalizeHistory converts the storage order (newest-first) to the
// presentation order (oldest-first) and drops anything that is not a plain
// user/assistant turn.
func normalizeHistory(stored []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		msg := stored[i]
		if msg.Role != "user" && msg.Role != "assistant" {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// lastN returns the trailing n messages, or all of them when fewer exist.
func lastN(msgs []llm.Message, n int) []llm.Message {
	if n <= 0 || len(msgs) == 0 {
		return nil
	}
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
