// Package pumpbot implements a Telegram bot that tracks newly listed
// pump.fun coins and the perpetuals program account on Solana devnet. Every
// inbound update passes through an abuse-prevention gate before any handler
// runs; see the security subpackage for the gate semantics.
package pumpbot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pumpwatch/pumpbot/instrumentation"
	"github.com/pumpwatch/pumpbot/scraper"
	"github.com/pumpwatch/pumpbot/security"
	"github.com/pumpwatch/pumpbot/solana"
)

// Action names used for throttling and metrics
const (
	actionStart    = "cmd_start"
	actionHelp     = "cmd_help"
	actionRefresh  = "cmd_refresh"
	actionContract = "cmd_contract"
	actionUnknown  = "text_message"
	actionCallback = "refresh_callback"
)

// refreshCallbackData identifies the inline refresh button
const refreshCallbackData = "refresh"

// telegramAPI is the slice of the Telegram client the bot needs. The concrete
// implementation is *tgbotapi.BotAPI; tests substitute a recorder.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the long-polling bot service. Construct with New, run with Run.
type Bot struct {
	api     telegramAPI
	gate    *security.Gate
	scraper *scraper.Scraper
	chain   *solana.Client
	inst    *instrumentation.Instrumentation
	tracer  trace.Tracer
	cfg     *Config
	logger  *slog.Logger

	wg sync.WaitGroup
}

// New creates a Bot from the given configuration, connecting to the Telegram
// API with the configured token. The optional Instrumentation enables
// metrics; when nil a disabled (noop) one is used.
func New(cfg *Config, inst *instrumentation.Instrumentation) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	api.Debug = cfg.Debug

	b, err := newBot(cfg, api, inst)
	if err != nil {
		return nil, err
	}

	b.logger.Info("Authorized on Telegram", "username", api.Self.UserName)
	return b, nil
}

// newBot wires the bot components around an already-built API client
func newBot(cfg *Config, api telegramAPI, inst *instrumentation.Instrumentation) (*Bot, error) {
	cfg.applyDefaults()

	if inst == nil {
		var err error
		inst, err = instrumentation.New(instrumentation.Config{Enabled: false})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize instrumentation: %w", err)
		}
	}

	gate := security.NewGate(&security.Config{
		MaxTrackedUsers:    cfg.Security.MaxTrackedUsers,
		Retention:          cfg.Security.Retention,
		SweepInterval:      cfg.Security.SweepInterval,
		EnableAuditLogging: cfg.Security.EnableAuditLogging,
		Logger:             cfg.Logger,
	})

	return &Bot{
		api:  api,
		gate: gate,
		scraper: scraper.New(&scraper.Config{
			BoardURL: cfg.Scraper.BoardURL,
			Timeout:  cfg.Scraper.Timeout,
			Logger:   cfg.Logger,
			Tracer:   inst.Tracer("scraper"),
		}),
		chain: solana.New(&solana.Config{
			RPCURL:    cfg.RPC.URL,
			ProgramID: cfg.RPC.ProgramID,
			CacheTTL:  cfg.RPC.CacheTTL,
			Logger:    cfg.Logger,
			Tracer:    inst.Tracer("rpc"),
		}),
		inst:   inst,
		tracer: inst.Tracer("transport"),
		cfg:    cfg,
		logger: cfg.Logger,
	}, nil
}

// Gate exposes the security gate for administrative use and monitoring wiring
func (b *Bot) Gate() *security.Gate {
	return b.gate
}

// Run polls for updates until ctx is canceled. Each update is handled on its
// own goroutine; Run drains in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.wg.Add(1)
	go b.statsLoop(ctx)

	b.logger.Info("Bot started",
		"stats_interval", b.cfg.StatsLogInterval,
		"command_limit", b.cfg.Security.CommandMaxRequests,
		"callback_limit", b.cfg.Security.CallbackMaxRequests)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.gate.Stop()
			b.logger.Info("Bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				b.gate.Stop()
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// statsLoop emits the periodic security stats line
func (b *Bot) statsLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.StatsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.gate.LogSecurityStats()
		}
	}
}

// handleUpdate routes one inbound update through the gate and on to its
// handler. Blocking fetch and RPC work stays on this goroutine.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	action := actionForMessage(msg)

	kind := "command"
	if action == actionUnknown {
		kind = "text"
	}
	ctx, span := b.startUpdateSpan(ctx, kind, action)
	defer span.End()
	span.SetAttributes(attribute.Int64(instrumentation.AttrChatID, msg.Chat.ID))
	if msg.From != nil {
		span.SetAttributes(attribute.Int64(instrumentation.AttrUserID, msg.From.ID))
	}

	b.inst.Metrics().RecordUpdate(ctx, action)

	identity := identityFromUser(msg.From)
	verdict := b.gate.Evaluate(identity, action,
		b.cfg.Security.CommandMaxRequests, b.cfg.Security.CommandWindow)
	b.recordVerdict(ctx, action, verdict)
	annotateVerdict(span, verdict)

	if !verdict.Allowed {
		if verdict.Reason == security.ReasonRateLimited {
			b.reply(msg.Chat.ID, throttleWarning, nil)
		}
		// Blocked and invalid-identity verdicts get silence
		return
	}

	switch action {
	case actionStart:
		b.reply(msg.Chat.ID, welcomeMessage, refreshKeyboard())
	case actionHelp:
		b.reply(msg.Chat.ID, helpMessage, refreshKeyboard())
	case actionRefresh:
		b.sendCoins(ctx, msg.Chat.ID)
	case actionContract:
		b.sendContract(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, unknownMessage, refreshKeyboard())
	}
}

// handleCallback serves the inline refresh button. Button presses are cheap
// to spam, so they run under the stricter callback limit.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Data != refreshCallbackData {
		return
	}

	ctx, span := b.startUpdateSpan(ctx, "callback", actionCallback)
	defer span.End()
	if query.From != nil {
		span.SetAttributes(attribute.Int64(instrumentation.AttrUserID, query.From.ID))
	}

	b.inst.Metrics().RecordUpdate(ctx, actionCallback)

	identity := identityFromUser(query.From)
	verdict := b.gate.Evaluate(identity, actionCallback,
		b.cfg.Security.CallbackMaxRequests, b.cfg.Security.CallbackWindow)
	b.recordVerdict(ctx, actionCallback, verdict)
	annotateVerdict(span, verdict)

	if !verdict.Allowed {
		if verdict.Reason == security.ReasonRateLimited {
			b.answerCallback(query.ID, throttleWarning)
		}
		return
	}

	b.answerCallback(query.ID, "")

	if query.Message == nil {
		return
	}

	_, text := b.fetchCoinsMessage(ctx)
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		query.Message.Chat.ID, query.Message.MessageID, text, *refreshKeyboard())
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("Failed to edit message", "error", err)
	}
}

// sendCoins fetches the board and replies with the formatted coin list
func (b *Bot) sendCoins(ctx context.Context, chatID int64) {
	_, text := b.fetchCoinsMessage(ctx)
	b.reply(chatID, text, refreshKeyboard())
}

// fetchCoinsMessage fetches the board and formats it, falling back to an
// error message when the fetch fails outright
func (b *Bot) fetchCoinsMessage(ctx context.Context) (*scraper.Board, string) {
	start := time.Now()
	board, err := b.scraper.Fetch(ctx)
	elapsed := float64(time.Since(start).Milliseconds())

	fallback := board != nil && board.Fallback
	b.inst.Metrics().RecordScrape(ctx, elapsed, fallback, err)

	if err != nil {
		b.logger.Error("Board fetch failed", "error", err)
		return nil, fetchErrorMessage
	}
	return board, formatCoins(board)
}

// sendContract looks up the program account and replies with its state.
// Transport failures still produce a reply carrying the explorer link.
func (b *Bot) sendContract(ctx context.Context, chatID int64) {
	start := time.Now()
	info, err := b.chain.ContractInfo(ctx)
	elapsed := float64(time.Since(start).Milliseconds())

	cached := info != nil && info.Cached
	b.inst.Metrics().RecordRPCCall(ctx, "getAccountInfo", elapsed, cached, err)

	if err != nil {
		b.logger.Error("Contract lookup failed", "error", err)
		text := fmt.Sprintf(
			"🔗 *Perpetuals Smart Contract Info*\n\n"+
				"⚠️ *Status:* RPC unreachable\n\n"+
				"You can still view the contract on the explorer:\n%s",
			solana.ExplorerURL(b.chain.ProgramID()))
		b.reply(chatID, text, nil)
		return
	}

	b.reply(chatID, formatContract(info), nil)
}

// reply sends a Markdown message, optionally with an inline keyboard
func (b *Bot) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// answerCallback acknowledges a button press so the client stops its spinner
func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Error("Failed to answer callback", "error", err)
	}
}

// startUpdateSpan opens the span covering one inbound update
func (b *Bot) startUpdateSpan(ctx context.Context, kind, action string) (context.Context, trace.Span) {
	return b.tracer.Start(ctx, "transport.handle_update",
		trace.WithAttributes(
			attribute.String(instrumentation.AttrUpdateKind, kind),
			attribute.String(instrumentation.AttrAction, action),
		))
}

// annotateVerdict attaches the gate decision to the update span
func annotateVerdict(span trace.Span, verdict security.Verdict) {
	outcome := "deny"
	if verdict.Allowed {
		outcome = "allow"
	}
	span.SetAttributes(
		attribute.String(instrumentation.AttrVerdict, outcome),
		attribute.String(instrumentation.AttrVerdictReason, verdict.Reason),
	)
	instrumentation.SetSpanSuccess(span)
}

// recordVerdict emits the evaluation metrics for one gated update
func (b *Bot) recordVerdict(ctx context.Context, action string, verdict security.Verdict) {
	m := b.inst.Metrics()
	m.RecordEvaluation(ctx, action, verdict.Allowed, verdict.Reason)
	if verdict.Suspicious {
		m.RecordSuspiciousFlagged(ctx, action)
	}
	if verdict.Reason == security.ReasonRateLimited {
		m.RecordRateLimitExceeded(ctx, action)
	}
	if verdict.Reason == security.ReasonInvalidIdentity {
		m.RecordUserBlocked(ctx, verdict.Reason)
	}
}

// actionForMessage classifies a message for throttling and metrics
func actionForMessage(msg *tgbotapi.Message) string {
	switch msg.Command() {
	case "start":
		return actionStart
	case "help":
		return actionHelp
	case "refresh":
		return actionRefresh
	case "contract":
		return actionContract
	default:
		return actionUnknown
	}
}

// identityFromUser converts a Telegram user to a gate identity. A nil user
// (channel posts and the like) yields a nil identity, which the gate denies.
func identityFromUser(u *tgbotapi.User) *security.Identity {
	if u == nil {
		return nil
	}
	return &security.Identity{
		ID:        security.UserID(u.ID),
		Username:  u.UserName,
		FirstName: u.FirstName,
		IsBot:     u.IsBot,
	}
}

// refreshKeyboard is the single-button inline keyboard under most replies
func refreshKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", refreshCallbackData),
		),
	)
	return &kb
}
