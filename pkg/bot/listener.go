// Package bot connects the pipeline to Discord: it translates gateway
// events into pipeline calls and pipeline acknowledgements into reactions
// and replies.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"stockpile/pkg/types"
)

// MessageHandler processes translated inbound messages. Both methods own
// their error handling; the listener only dispatches.
type MessageHandler interface {
	HandleNewMessage(ctx context.Context, msg types.IncomingMessage)
	HandleThreadComment(ctx context.Context, msg types.IncomingMessage)
}

// Listener subscribes to gateway events for one monitored channel and
// dispatches each accepted message to the handler on its own goroutine.
type Listener struct {
	session   *discordgo.Session
	handler   MessageHandler
	channelID string
	logger    *slog.Logger
}

// NewListener registers the gateway handlers on session. channelID is the
// only channel whose messages are processed; when empty, all channels are.
func NewListener(session *discordgo.Session, handler MessageHandler, channelID string, logger *slog.Logger) *Listener {
	l := &Listener{
		session:   session,
		handler:   handler,
		channelID: channelID,
		logger:    logger.With("component", "bot"),
	}
	session.AddHandler(l.onReady)
	session.AddHandler(l.onMessageCreate)
	return l
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	l.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	if err := l.session.Open(); err != nil {
		return fmt.Errorf("open gateway connection: %w", err)
	}
	l.logger.Info("listening for messages", "channel_id", l.channelID)

	<-ctx.Done()
	l.logger.Info("shutting down")
	return l.session.Close()
}

func (l *Listener) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	l.logger.Info("gateway ready", "user", r.User.Username)
}

func (l *Listener) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	msg := toIncoming(m.Message)
	if !l.shouldProcess(msg) {
		return
	}

	// Each message runs on its own goroutine; admission control inside the
	// handler bounds actual concurrency.
	go func() {
		ctx := context.Background()
		if msg.ParentID != "" {
			l.handler.HandleThreadComment(ctx, msg)
			return
		}
		l.handler.HandleNewMessage(ctx, msg)
	}()
}

// shouldProcess drops automated authors and messages outside the
// monitored channel.
func (l *Listener) shouldProcess(msg types.IncomingMessage) bool {
	if msg.ID == "" || msg.AuthorIsBot {
		return false
	}
	if l.channelID != "" && msg.ChannelID != l.channelID {
		return false
	}
	return true
}

// toIncoming flattens a gateway message into the pipeline's event type.
func toIncoming(m *discordgo.Message) types.IncomingMessage {
	if m == nil {
		return types.IncomingMessage{}
	}

	msg := types.IncomingMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorName = m.Author.Username
		msg.AuthorIsBot = m.Author.Bot
	}
	if m.MessageReference != nil {
		msg.ParentID = m.MessageReference.MessageID
	}
	return msg
}
