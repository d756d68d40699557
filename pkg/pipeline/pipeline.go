// Package pipeline orchestrates message processing: classify, enrich,
// render, persist locally and sync to the remote, under bounded admission.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"

	"golang.org/x/sync/semaphore"

	"stockpile/pkg/markdown"
	"stockpile/pkg/parser"
	"stockpile/pkg/types"
	"stockpile/pkg/vault"
)

// Acknowledgement markers posted as reactions on the inbound message.
const (
	ReactionReceived = "👁️"
	ReactionSuccess  = "✅"
	ReactionError    = "❌"
)

// Reply templates.
const (
	replySuccess     = "✅ Article saved!"
	replyErrorPrefix = "❌ Error occurred: "
	replyNoURL       = "❌ Comments can only be added to link posts."
	replyNotFound    = "❌ Article file not found. The original post may not have been saved."
)

const (
	defaultMaxConcurrent = 3
	maxReplyDetailLen    = 100
	memoCommitPrefixLen  = 30
)

var (
	errNoParent      = errors.New("message has no parent reference")
	errParentNotLink = errors.New("parent post has no URL")
)

// MetadataFetcher retrieves page metadata, degrading internally on failure.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) types.PageMetadata
}

// TagGenerator produces tags and a summary, degrading internally on failure.
type TagGenerator interface {
	Generate(ctx context.Context, title, description string) types.TagResult
}

// Store persists rendered documents.
type Store interface {
	SaveArticle(title, content string) (string, error)
	SaveMemo(content string) (string, error)
	AppendComment(path, comment string) error
	FindByURL(url string) (string, error)
}

// Syncer mirrors stored files to the remote repository.
type Syncer interface {
	Push(path, message string) bool
	Pull() bool
}

// Notifier posts acknowledgements and replies back to the chat platform and
// fetches referenced messages.
type Notifier interface {
	React(channelID, messageID, emoji string) error
	Reply(msg types.IncomingMessage, text string) error
	FetchMessage(channelID, messageID string) (types.IncomingMessage, error)
}

// Handler runs the per-message pipeline. All collaborators are injected at
// construction; a Handler is immutable afterwards.
type Handler struct {
	fetcher  MetadataFetcher
	tagger   TagGenerator
	store    Store
	syncer   Syncer
	notifier Notifier

	sem    *semaphore.Weighted
	logger *slog.Logger
}

// New creates a Handler with the given collaborators and admission limit.
func New(fetcher MetadataFetcher, tagger TagGenerator, store Store, syncer Syncer, notifier Notifier, maxConcurrent int64, logger *slog.Logger) *Handler {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Handler{
		fetcher:  fetcher,
		tagger:   tagger,
		store:    store,
		syncer:   syncer,
		notifier: notifier,
		sem:      semaphore.NewWeighted(maxConcurrent),
		logger:   logger.With("component", "pipeline"),
	}
}

// HandleNewMessage runs the new-post pipeline for one inbound message. The
// received marker is posted before admission so arrival is acknowledged
// even when all slots are busy. Any failure is converted into an error
// acknowledgement; nothing propagates to the caller.
func (h *Handler) HandleNewMessage(ctx context.Context, msg types.IncomingMessage) {
	h.react(msg, ReactionReceived)

	// An aborted admission (cancelled context at shutdown) still gets a
	// terminal marker so no message is left with only the received one.
	if err := h.sem.Acquire(ctx, 1); err != nil {
		h.logger.Warn("admission aborted", "message_id", msg.ID, "err", err)
		h.react(msg, ReactionError)
		return
	}
	defer h.sem.Release(1)

	err := h.runProtected(ctx, msg.ID, func(ctx context.Context) error {
		return h.processNewMessage(ctx, msg)
	})
	if err != nil {
		h.logger.Error("message processing failed", "message_id", msg.ID, "err", err)
		h.react(msg, ReactionError)
		h.reply(msg, replyErrorPrefix+truncate(err.Error(), maxReplyDetailLen))
		return
	}

	h.react(msg, ReactionSuccess)
	h.reply(msg, replySuccess)
}

// HandleThreadComment appends a threaded reply to the stored document of
// its parent link post. Success is acknowledged with a marker only; every
// failure produces exactly one error marker and reply.
func (h *Handler) HandleThreadComment(ctx context.Context, msg types.IncomingMessage) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		h.logger.Warn("admission aborted", "message_id", msg.ID, "err", err)
		h.react(msg, ReactionError)
		return
	}
	defer h.sem.Release(1)

	err := h.runProtected(ctx, msg.ID, func(ctx context.Context) error {
		return h.processThreadComment(ctx, msg)
	})
	if err == nil {
		h.react(msg, ReactionSuccess)
		return
	}

	h.logger.Error("comment processing failed", "message_id", msg.ID, "err", err)
	h.react(msg, ReactionError)
	switch {
	case errors.Is(err, errParentNotLink):
		h.reply(msg, replyNoURL)
	case errors.Is(err, vault.ErrNotFound):
		h.reply(msg, replyNotFound)
	default:
		h.reply(msg, replyErrorPrefix+truncate(err.Error(), maxReplyDetailLen))
	}
}

// runProtected is the pipeline's outermost boundary: panics become errors
// so one bad message can never take the process down.
func (h *Handler) runProtected(ctx context.Context, messageID string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			h.logger.Error("panic recovered in pipeline",
				"message_id", messageID, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	return fn(ctx)
}

func (h *Handler) processNewMessage(ctx context.Context, msg types.IncomingMessage) error {
	parsed := parser.Parse(msg.Content)
	if parsed.Kind == types.KindLink {
		return h.processArticle(ctx, parsed)
	}
	return h.processMemo(parsed)
}

func (h *Handler) processArticle(ctx context.Context, parsed types.ParseResult) error {
	h.logger.Info("processing article", "url", parsed.URL)

	// Fetch and tagging degrade internally; the pipeline always continues
	// with usable values.
	meta := h.fetcher.Fetch(ctx, parsed.URL)
	tags := h.tagger.Generate(ctx, meta.Title, meta.Description)

	content := markdown.Generate(meta.Title, parsed.URL, meta.Description, tags.Tags, tags.Summary, parsed.Comment)
	path, err := h.store.SaveArticle(meta.Title, content)
	if err != nil {
		return fmt.Errorf("save article: %w", err)
	}

	if !h.syncer.Push(path, "Add article: "+meta.Title) {
		h.logger.Warn("remote push failed, article kept locally", "path", path)
	}
	h.logger.Info("article processed", "path", path)
	return nil
}

func (h *Handler) processMemo(parsed types.ParseResult) error {
	h.logger.Info("processing memo")

	content := markdown.GenerateMemo(parsed.Memo)
	path, err := h.store.SaveMemo(content)
	if err != nil {
		return fmt.Errorf("save memo: %w", err)
	}

	if !h.syncer.Push(path, "Add memo: "+truncate(parsed.Memo, memoCommitPrefixLen)+"...") {
		h.logger.Warn("remote push failed, memo kept locally", "path", path)
	}
	h.logger.Info("memo processed", "path", path)
	return nil
}

func (h *Handler) processThreadComment(ctx context.Context, msg types.IncomingMessage) error {
	if msg.ParentID == "" {
		return errNoParent
	}

	parent, err := h.notifier.FetchMessage(msg.ChannelID, msg.ParentID)
	if err != nil {
		return fmt.Errorf("fetch parent message: %w", err)
	}

	parsed := parser.Parse(parent.Content)
	if parsed.Kind != types.KindLink {
		return errParentNotLink
	}

	path, err := h.store.FindByURL(parsed.URL)
	if err != nil {
		return err
	}

	if !h.syncer.Pull() {
		h.logger.Warn("pull failed, appending to possibly stale copy", "path", path)
	}
	if err := h.store.AppendComment(path, msg.Content); err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	if !h.syncer.Push(path, "Add comment: "+filepath.Base(path)) {
		h.logger.Warn("remote push failed, comment kept locally", "path", path)
	}

	h.logger.Info("comment appended", "path", path, "message_id", msg.ID)
	return nil
}

func (h *Handler) react(msg types.IncomingMessage, emoji string) {
	if err := h.notifier.React(msg.ChannelID, msg.ID, emoji); err != nil {
		h.logger.Warn("failed to add reaction", "message_id", msg.ID, "emoji", emoji, "err", err)
	}
}

func (h *Handler) reply(msg types.IncomingMessage, text string) {
	if err := h.notifier.Reply(msg, text); err != nil {
		h.logger.Warn("failed to send reply", "message_id", msg.ID, "err", err)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
