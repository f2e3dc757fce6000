package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SuSaiGit/ikeman/internal/gemini"
	"github.com/SuSaiGit/ikeman/internal/line"
	"github.com/SuSaiGit/ikeman/internal/observability/metrics"
	"github.com/SuSaiGit/ikeman/internal/payments"
	"github.com/SuSaiGit/ikeman/pkg/logging"
)

// replyCeiling is the largest text reply the dispatcher will send, kept
// under the platform's 5000-character message limit. Longer generated text
// is cut so that the result, ellipsis marker included, is exactly this long.
const replyCeiling = 4900

const ellipsisMarker = "..."

// Replier sends replies bound to a reply token.
type Replier interface {
	ReplyText(ctx context.Context, replyToken, text string) error
	ReplyFlex(ctx context.Context, replyToken string, flex *line.FlexMessage) error
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PaymentRequester creates a payment and returns its checkout URL.
type PaymentRequester interface {
	Request(ctx context.Context, params payments.RequestParams) (*payments.RequestResult, error)
}

// PaymentConfig is what the pay command charges and where the provider
// redirects the payer afterwards.
type PaymentConfig struct {
	Amount      int64
	Currency    string
	ProductName string
	ImageURL    string
	ConfirmURL  string
	CancelURL   string
	PendingTTL  time.Duration
}

// Dispatcher routes one webhook event to its reply.
type Dispatcher struct {
	profile   *Profile
	replier   Replier
	generator Generator
	payer     PaymentRequester
	pending   payments.PendingStore
	payCfg    PaymentConfig
	metrics   *metrics.RelayMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// DispatcherConfig wires a Dispatcher. Generator and the payment fields may
// be nil; the matching features then degrade to fixed replies.
type DispatcherConfig struct {
	Profile   *Profile
	Replier   Replier
	Generator Generator
	Payer     PaymentRequester
	Pending   payments.PendingStore
	Payment   PaymentConfig
	Metrics   *metrics.RelayMetrics
	Logger    *logging.Logger
	Now       func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Profile == nil {
		panic("bot: profile cannot be nil")
	}
	if cfg.Replier == nil {
		panic("bot: replier cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		profile:   cfg.Profile,
		replier:   cfg.Replier,
		generator: cfg.Generator,
		payer:     cfg.Payer,
		pending:   cfg.Pending,
		payCfg:    cfg.Payment,
		metrics:   cfg.Metrics,
		logger:    logger,
		now:       now,
	}
}

// HandleEvent processes a single webhook event. Collaborator failures are
// absorbed into fixed user-facing replies and never returned; the webhook
// request as a whole still succeeds.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev line.Event) {
	switch ev.Type {
	case line.EventTypeMessage:
		d.handleMessage(ctx, ev)
	case line.EventTypeFollow:
		d.logger.Info("new follower", "user_id", ev.Source.UserIDOrUnknown())
		d.reply(ctx, ev.ReplyToken, d.profile.Greeting)
		d.observeEvent(ev.Type, "replied")
	case line.EventTypeUnfollow:
		d.logger.Info("user unfollowed", "user_id", ev.Source.UserIDOrUnknown())
		d.observeEvent(ev.Type, "logged")
	case line.EventTypePostback:
		data := ""
		if ev.Postback != nil {
			data = ev.Postback.Data
		}
		d.logger.Info("postback received", "data", data)
		d.observeEvent(ev.Type, "logged")
	default:
		d.logger.Info("unsupported event type", "event_type", ev.Type)
		d.observeEvent(ev.Type, "ignored")
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, ev line.Event) {
	if ev.Message == nil {
		d.logger.Warn("message event without message payload")
		d.observeEvent(ev.Type, "ignored")
		return
	}
	switch ev.Message.Type {
	case line.MessageTypeText:
		d.handleText(ctx, ev)
	case line.MessageTypeImage:
		d.logger.Info("image message received", "context", ev.Source.Context())
		d.reply(ctx, ev.ReplyToken, d.profile.ImageAck)
		d.observeEvent(ev.Type, "replied")
	case line.MessageTypeAudio:
		d.logger.Info("audio message received", "context", ev.Source.Context())
		d.reply(ctx, ev.ReplyToken, d.profile.AudioAck)
		d.observeEvent(ev.Type, "replied")
	default:
		d.logger.Info("unsupported message type", "message_type", ev.Message.Type)
		d.reply(ctx, ev.ReplyToken, d.profile.UnsupportedReply)
		d.observeEvent(ev.Type, "replied")
	}
}

func (d *Dispatcher) handleText(ctx context.Context, ev line.Event) {
	original := strings.TrimSpace(ev.Message.Text)
	lower := strings.ToLower(original)
	userID := ev.Source.UserIDOrUnknown()

	d.logger.Info("text message",
		"user_id", userID,
		"context", ev.Source.Context(),
		"text", original,
	)

	if cmd, ok := d.profile.Command(lower); ok {
		if cmd == CommandPay {
			// The pay command replies with a card, not text; an empty
			// reply below suppresses the default text path so the reply
			// token is used at most once.
			d.handlePay(ctx, ev, userID)
			d.observeEvent(ev.Type, "pay")
			return
		}
		d.reply(ctx, ev.ReplyToken, d.commandReply(cmd))
		d.observeEvent(ev.Type, "command")
		return
	}

	d.reply(ctx, ev.ReplyToken, d.generateReply(ctx, original, userID))
	d.observeEvent(ev.Type, "generated")
}

func (d *Dispatcher) commandReply(cmd Command) string {
	switch cmd {
	case CommandHello:
		return d.profile.HelloReply
	case CommandHelp:
		return d.profile.HelpText
	case CommandTime:
		return d.profile.TimeReply(d.now())
	case CommandPing:
		return d.profile.PingReply
	case CommandIdentity:
		return d.profile.IdentityReply
	case CommandBye:
		return d.profile.ByeReply
	default:
		return ""
	}
}

// generateReply forwards the original (non-lowercased) text to the
// generation collaborator and maps each failure class to its apology.
func (d *Dispatcher) generateReply(ctx context.Context, original, userID string) string {
	if d.generator == nil {
		d.logger.Warn("generation api not configured")
		return d.profile.NotConfiguredReply
	}

	d.logger.Info("calling generation api", "user_id", userID)
	text, err := d.generator.Generate(ctx, d.profile.PromptTemplate+original)
	if err != nil {
		return d.apologyFor(err)
	}
	return truncateReply(text)
}

func (d *Dispatcher) apologyFor(err error) string {
	var statusErr *gemini.StatusError
	switch {
	case errors.As(err, &statusErr):
		d.logger.Error("generation api rejected request", "status", statusErr.Code, "body", statusErr.Body)
		d.observeUpstreamError("gemini", "rejected")
		return d.profile.StatusApology
	case errors.Is(err, gemini.ErrMalformed):
		d.logger.Error("generation api returned malformed body", "error", err)
		d.observeUpstreamError("gemini", "malformed")
		return d.profile.MalformedApology
	default:
		d.logger.Error("generation api unreachable", "error", err)
		d.observeUpstreamError("gemini", "unavailable")
		return d.profile.ConnectApology
	}
}

func (d *Dispatcher) handlePay(ctx context.Context, ev line.Event, userID string) {
	if d.payer == nil || d.pending == nil {
		d.reply(ctx, ev.ReplyToken, d.profile.NotConfiguredReply)
		return
	}

	orderID := uuid.NewString()
	result, err := d.payer.Request(ctx, payments.RequestParams{
		Amount:      d.payCfg.Amount,
		Currency:    d.payCfg.Currency,
		OrderID:     orderID,
		ProductName: d.payCfg.ProductName,
		ImageURL:    d.payCfg.ImageURL,
		ConfirmURL:  d.payCfg.ConfirmURL,
		CancelURL:   d.payCfg.CancelURL,
	})
	if err != nil {
		d.logger.Error("payment request failed", "error", err, "order_id", orderID, "user_id", userID)
		d.observeUpstreamError("linepay", "rejected")
		msg := d.profile.PayFailedPrefix
		var provErr *payments.ProviderError
		if errors.As(err, &provErr) {
			msg += provErr.Message
		} else {
			msg += d.profile.ConnectApology
		}
		d.reply(ctx, ev.ReplyToken, msg)
		return
	}

	record := payments.PendingPayment{
		TransactionID: result.TransactionID,
		OrderID:       orderID,
		Amount:        d.payCfg.Amount,
		Currency:      d.payCfg.Currency,
		UserID:        userID,
		ProductName:   d.payCfg.ProductName,
		RequestedAt:   d.now().UTC(),
	}
	// The record must exist before the card goes out; the confirm callback
	// can arrive on another instance as soon as the payer opens the link.
	if err := d.pending.Put(ctx, result.TransactionID, record, d.payCfg.PendingTTL); err != nil {
		d.logger.Error("failed to persist pending payment", "error", err, "transaction_id", result.TransactionID)
		d.reply(ctx, ev.ReplyToken, d.profile.PayFailedPrefix+d.profile.StatusApology)
		return
	}

	d.logger.Info("payment requested",
		"transaction_id", result.TransactionID,
		"order_id", orderID,
		"amount", d.payCfg.Amount,
		"currency", d.payCfg.Currency,
		"user_id", userID,
	)

	flex := payments.BuildPaymentFlex(d.payCfg.ProductName, d.payCfg.Amount, d.payCfg.Currency, result.PaymentURL)
	if ev.ReplyToken == "" {
		return
	}
	if err := d.replier.ReplyFlex(ctx, ev.ReplyToken, flex); err != nil {
		d.logger.Error("failed to send payment card", "error", err, "transaction_id", result.TransactionID)
		d.observeReply("flex", "error")
		return
	}
	d.observeReply("flex", "ok")
}

// reply sends text bound to the event's reply token. Empty text or an empty
// token suppresses the reply entirely.
func (d *Dispatcher) reply(ctx context.Context, replyToken, text string) {
	if replyToken == "" || text == "" {
		return
	}
	if err := d.replier.ReplyText(ctx, replyToken, text); err != nil {
		d.logger.Error("failed to send reply", "error", err)
		d.observeReply("text", "error")
		return
	}
	d.observeReply("text", "ok")
}

func truncateReply(text string) string {
	if len(text) <= replyCeiling {
		return text
	}
	return text[:replyCeiling-len(ellipsisMarker)] + ellipsisMarker
}

func (d *Dispatcher) observeEvent(eventType, outcome string) {
	d.metrics.ObserveEvent(eventType, outcome)
}

func (d *Dispatcher) observeReply(kind, status string) {
	d.metrics.ObserveReply(kind, status)
}

func (d *Dispatcher) observeUpstreamError(collaborator, class string) {
	d.metrics.ObserveUpstreamError(collaborator, class)
}
