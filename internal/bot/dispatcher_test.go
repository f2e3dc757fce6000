package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SuSaiGit/ikeman/internal/gemini"
	"github.com/SuSaiGit/ikeman/internal/line"
	"github.com/SuSaiGit/ikeman/internal/payments"
	"github.com/SuSaiGit/ikeman/pkg/logging"
)

type fakeReplier struct {
	texts   []string
	flexes  []*line.FlexMessage
	tokens  []string
	onFlex  func()
	textErr error
}

func (f *fakeReplier) ReplyText(_ context.Context, token, text string) error {
	f.tokens = append(f.tokens, token)
	f.texts = append(f.texts, text)
	return f.textErr
}

func (f *fakeReplier) ReplyFlex(_ context.Context, token string, flex *line.FlexMessage) error {
	f.tokens = append(f.tokens, token)
	f.flexes = append(f.flexes, flex)
	if f.onFlex != nil {
		f.onFlex()
	}
	return nil
}

type fakeGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakePayer struct {
	params []payments.RequestParams
	result *payments.RequestResult
	err    error
}

func (f *fakePayer) Request(_ context.Context, params payments.RequestParams) (*payments.RequestResult, error) {
	f.params = append(f.params, params)
	return f.result, f.err
}

func textEvent(text string) line.Event {
	return line.Event{
		Type:       line.EventTypeMessage,
		ReplyToken: "token-1",
		Source:     line.Source{Type: "user", UserID: "U123"},
		Message:    &line.Message{Type: line.MessageTypeText, Text: text},
	}
}

func newTestDispatcher(t *testing.T, replier *fakeReplier, gen Generator, payer PaymentRequester, pending payments.PendingStore) *Dispatcher {
	t.Helper()
	return NewDispatcher(DispatcherConfig{
		Profile:   ProfileByName("default"),
		Replier:   replier,
		Generator: gen,
		Payer:     payer,
		Pending:   pending,
		Payment: PaymentConfig{
			Amount:      100,
			Currency:    "JPY",
			ProductName: "Bot Support",
			ConfirmURL:  "https://example.com/payments/confirm",
			CancelURL:   "https://example.com/payments/cancel",
			PendingTTL:  time.Minute,
		},
		Logger: logging.New("error"),
		Now:    func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) },
	})
}

func TestHelpCommandRepliesOnceWithoutGeneration(t *testing.T) {
	for _, input := range []string{"help", "HELP", "  Help  "} {
		t.Run(input, func(t *testing.T) {
			replier := &fakeReplier{}
			gen := &fakeGenerator{reply: "should not be used"}
			d := newTestDispatcher(t, replier, gen, nil, nil)

			d.HandleEvent(context.Background(), textEvent(input))

			if len(replier.texts) != 1 {
				t.Fatalf("replies = %d, want 1", len(replier.texts))
			}
			if replier.texts[0] != d.profile.HelpText {
				t.Errorf("reply = %q, want help text", replier.texts[0])
			}
			if len(gen.prompts) != 0 {
				t.Errorf("generator called %d times for a command", len(gen.prompts))
			}
		})
	}
}

func TestTimeCommandUsesInjectedClock(t *testing.T) {
	replier := &fakeReplier{}
	d := newTestDispatcher(t, replier, nil, nil, nil)

	d.HandleEvent(context.Background(), textEvent("time"))

	if len(replier.texts) != 1 {
		t.Fatalf("replies = %d, want 1", len(replier.texts))
	}
	want := "Current time: 2025-03-14 09:26:53"
	if replier.texts[0] != want {
		t.Errorf("reply = %q, want %q", replier.texts[0], want)
	}
}

func TestGenerationPromptKeepsOriginalCase(t *testing.T) {
	replier := &fakeReplier{}
	gen := &fakeGenerator{reply: "sure thing"}
	d := newTestDispatcher(t, replier, gen, nil, nil)

	d.HandleEvent(context.Background(), textEvent("Tell me about Mars"))

	if len(gen.prompts) != 1 {
		t.Fatalf("generator calls = %d, want 1", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "Tell me about Mars") {
		t.Errorf("prompt %q does not contain the original message", gen.prompts[0])
	}
	if len(replier.texts) != 1 || replier.texts[0] != "sure thing" {
		t.Errorf("replies = %v, want the generated text", replier.texts)
	}
}

func TestGenerationFailuresMapToApologies(t *testing.T) {
	profile := ProfileByName("default")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unreachable", gemini.ErrUnavailable, profile.ConnectApology},
		{"status", &gemini.StatusError{Code: 500, Body: "boom"}, profile.StatusApology},
		{"malformed", gemini.ErrMalformed, profile.MalformedApology},
		{"wrapped unreachable", errors.Join(errors.New("dial"), gemini.ErrUnavailable), profile.ConnectApology},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replier := &fakeReplier{}
			gen := &fakeGenerator{err: tt.err}
			d := newTestDispatcher(t, replier, gen, nil, nil)

			d.HandleEvent(context.Background(), textEvent("what happened"))

			if len(replier.texts) != 1 {
				t.Fatalf("replies = %d, want 1", len(replier.texts))
			}
			if replier.texts[0] != tt.want {
				t.Errorf("reply = %q, want %q", replier.texts[0], tt.want)
			}
		})
	}
}

func TestLongGeneratedReplyIsTruncated(t *testing.T) {
	replier := &fakeReplier{}
	gen := &fakeGenerator{reply: strings.Repeat("a", 6000)}
	d := newTestDispatcher(t, replier, gen, nil, nil)

	d.HandleEvent(context.Background(), textEvent("write an essay"))

	if len(replier.texts) != 1 {
		t.Fatalf("replies = %d, want 1", len(replier.texts))
	}
	got := replier.texts[0]
	if len(got) != replyCeiling {
		t.Errorf("reply length = %d, want %d", len(got), replyCeiling)
	}
	if !strings.HasSuffix(got, ellipsisMarker) {
		t.Errorf("truncated reply missing %q suffix", ellipsisMarker)
	}
}

func TestShortGeneratedReplyIsUntouched(t *testing.T) {
	replier := &fakeReplier{}
	gen := &fakeGenerator{reply: strings.Repeat("b", replyCeiling)}
	d := newTestDispatcher(t, replier, gen, nil, nil)

	d.HandleEvent(context.Background(), textEvent("short enough"))

	if got := replier.texts[0]; len(got) != replyCeiling || strings.HasSuffix(got, ellipsisMarker) {
		t.Errorf("reply at the ceiling must not be truncated, len = %d", len(got))
	}
}

func TestPayCommandSendsSingleFlexAndStoresFirst(t *testing.T) {
	store := payments.NewMemoryStore()
	replier := &fakeReplier{}
	storedBeforeReply := false
	replier.onFlex = func() {
		record, err := store.TakeIfPresent(context.Background(), "tx-77")
		if err != nil {
			t.Errorf("TakeIfPresent: %v", err)
		}
		storedBeforeReply = record != nil
		if record != nil {
			if err := store.Put(context.Background(), "tx-77", *record, time.Minute); err != nil {
				t.Errorf("Put: %v", err)
			}
		}
	}
	payer := &fakePayer{result: &payments.RequestResult{
		TransactionID: "tx-77",
		PaymentURL:    "https://pay.example.com/web",
	}}
	d := newTestDispatcher(t, replier, &fakeGenerator{}, payer, store)

	d.HandleEvent(context.Background(), textEvent("pay"))

	if len(replier.flexes) != 1 {
		t.Fatalf("flex replies = %d, want 1", len(replier.flexes))
	}
	if len(replier.texts) != 0 {
		t.Fatalf("text replies = %v, want none alongside the card", replier.texts)
	}
	if !storedBeforeReply {
		t.Error("pending record must be stored before the card is sent")
	}
	if len(payer.params) != 1 {
		t.Fatalf("payment requests = %d, want 1", len(payer.params))
	}
	p := payer.params[0]
	if p.Amount != 100 || p.Currency != "JPY" || p.OrderID == "" {
		t.Errorf("request params = %+v", p)
	}
}

func TestPayCommandProviderRejection(t *testing.T) {
	replier := &fakeReplier{}
	payer := &fakePayer{err: &payments.ProviderError{Code: "1104", Message: "merchant not found"}}
	d := newTestDispatcher(t, replier, &fakeGenerator{}, payer, payments.NewMemoryStore())

	d.HandleEvent(context.Background(), textEvent("pay"))

	if len(replier.flexes) != 0 {
		t.Fatal("no card should be sent when the provider rejects")
	}
	if len(replier.texts) != 1 {
		t.Fatalf("replies = %d, want 1", len(replier.texts))
	}
	want := d.profile.PayFailedPrefix + "merchant not found"
	if replier.texts[0] != want {
		t.Errorf("reply = %q, want %q", replier.texts[0], want)
	}
}

func TestFollowEventGreets(t *testing.T) {
	replier := &fakeReplier{}
	d := newTestDispatcher(t, replier, nil, nil, nil)

	d.HandleEvent(context.Background(), line.Event{
		Type:       line.EventTypeFollow,
		ReplyToken: "token-f",
		Source:     line.Source{Type: "user", UserID: "U9"},
	})

	if len(replier.texts) != 1 || replier.texts[0] != d.profile.Greeting {
		t.Errorf("replies = %v, want the greeting", replier.texts)
	}
}

func TestUnfollowAndPostbackDoNotReply(t *testing.T) {
	for _, ev := range []line.Event{
		{Type: line.EventTypeUnfollow, Source: line.Source{Type: "user", UserID: "U9"}},
		{Type: line.EventTypePostback, ReplyToken: "token-p", Postback: &line.Postback{Data: "action=noop"}},
		{Type: "memberJoined", ReplyToken: "token-m"},
	} {
		t.Run(ev.Type, func(t *testing.T) {
			replier := &fakeReplier{}
			d := newTestDispatcher(t, replier, nil, nil, nil)

			d.HandleEvent(context.Background(), ev)

			if len(replier.texts)+len(replier.flexes) != 0 {
				t.Errorf("event %q must not reply", ev.Type)
			}
		})
	}
}

func TestNonTextMessagesAcknowledged(t *testing.T) {
	tests := []struct {
		msgType string
		want    func(p *Profile) string
	}{
		{line.MessageTypeImage, func(p *Profile) string { return p.ImageAck }},
		{line.MessageTypeAudio, func(p *Profile) string { return p.AudioAck }},
		{"sticker", func(p *Profile) string { return p.UnsupportedReply }},
	}
	for _, tt := range tests {
		t.Run(tt.msgType, func(t *testing.T) {
			replier := &fakeReplier{}
			d := newTestDispatcher(t, replier, nil, nil, nil)

			d.HandleEvent(context.Background(), line.Event{
				Type:       line.EventTypeMessage,
				ReplyToken: "token-2",
				Source:     line.Source{Type: "user", UserID: "U1"},
				Message:    &line.Message{Type: tt.msgType},
			})

			if len(replier.texts) != 1 || replier.texts[0] != tt.want(d.profile) {
				t.Errorf("replies = %v", replier.texts)
			}
		})
	}
}

func TestReplyFailureIsAbsorbed(t *testing.T) {
	replier := &fakeReplier{textErr: errors.New("expired reply token")}
	d := newTestDispatcher(t, replier, nil, nil, nil)

	// Must not panic or propagate; the batch keeps going.
	d.HandleEvent(context.Background(), textEvent("ping"))

	if len(replier.texts) != 1 {
		t.Fatalf("replies attempted = %d, want 1", len(replier.texts))
	}
}

func TestGeneratorNotConfigured(t *testing.T) {
	replier := &fakeReplier{}
	d := newTestDispatcher(t, replier, nil, nil, nil)

	d.HandleEvent(context.Background(), textEvent("free-form question"))

	if len(replier.texts) != 1 || replier.texts[0] != d.profile.NotConfiguredReply {
		t.Errorf("replies = %v, want the not-configured notice", replier.texts)
	}
}
