package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"stockpile/pkg/types"
)

// Notifier posts reactions and replies through a Discord session and
// fetches referenced messages for the comment path.
type Notifier struct {
	session *discordgo.Session
}

// NewNotifier wraps session for outbound calls.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

// React adds an emoji reaction to the given message.
func (n *Notifier) React(channelID, messageID, emoji string) error {
	if err := n.session.MessageReactionAdd(channelID, messageID, emoji); err != nil {
		return fmt.Errorf("add reaction %q: %w", emoji, err)
	}
	return nil
}

// Reply sends text as a threaded reply to msg.
func (n *Notifier) Reply(msg types.IncomingMessage, text string) error {
	_, err := n.session.ChannelMessageSendReply(msg.ChannelID, text, &discordgo.MessageReference{
		MessageID: msg.ID,
		ChannelID: msg.ChannelID,
	})
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// FetchMessage retrieves a single message by ID, typically the parent of a
// threaded reply.
func (n *Notifier) FetchMessage(channelID, messageID string) (types.IncomingMessage, error) {
	m, err := n.session.ChannelMessage(channelID, messageID)
	if err != nil {
		return types.IncomingMessage{}, fmt.Errorf("fetch message %s: %w", messageID, err)
	}
	return toIncoming(m), nil
}
