package bot

import (
	"strings"
	"time"
)

// Command is a recognized keyword in a text message.
type Command int

const (
	CommandNone Command = iota
	CommandHello
	CommandHelp
	CommandTime
	CommandPing
	CommandIdentity
	CommandBye
	CommandPay
)

// Profile carries everything that differs between deployed bot variants:
// command aliases, persona strings, and the prompt template. One profile is
// selected at startup; nothing branches on a bot name at runtime.
type Profile struct {
	Name string

	aliases map[string]Command

	HelloReply    string
	HelpText      string
	TimeLayout    string
	TimePrefix    string
	TimeSuffix    string
	PingReply     string
	IdentityReply string
	ByeReply      string

	Greeting           string
	ImageAck           string
	AudioAck           string
	UnsupportedReply   string
	NotConfiguredReply string
	PayFailedPrefix    string

	// PromptTemplate primes the generation model; the user's message is
	// appended verbatim.
	PromptTemplate string

	ConnectApology   string
	StatusApology    string
	MalformedApology string
}

// Command matches an already lowercased-and-trimmed message against the
// profile's alias table.
func (p *Profile) Command(lower string) (Command, bool) {
	cmd, ok := p.aliases[lower]
	return cmd, ok
}

// TimeReply renders the time command response.
func (p *Profile) TimeReply(t time.Time) string {
	return p.TimePrefix + t.Format(p.TimeLayout) + p.TimeSuffix
}

// ProfileByName returns the built-in profile for name, falling back to the
// default profile when the name is unknown.
func ProfileByName(name string) *Profile {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "kimutaku":
		return kimutakuProfile()
	default:
		return defaultProfile()
	}
}

func defaultProfile() *Profile {
	return &Profile{
		Name: "default",
		aliases: map[string]Command{
			"hello":      CommandHello,
			"hi":         CommandHello,
			"สวัสดี":     CommandHello,
			"help":       CommandHelp,
			"ช่วยเหลือ":  CommandHelp,
			"time":       CommandTime,
			"เวลา":       CommandTime,
			"ping":       CommandPing,
			"bot":        CommandIdentity,
			"bye":        CommandBye,
			"goodbye":    CommandBye,
			"ลาก่อน":     CommandBye,
			"pay":        CommandPay,
		},
		HelloReply:    "Hello! How can I help you today?",
		HelpText:      "Available commands:\n- hello: Say hello\n- time: Get current time\n- ping: Check I am online\n- pay: Get a payment link\n- help: Show this help\n\nAnything else goes to the AI!",
		TimeLayout:    "2006-01-02 15:04:05",
		TimePrefix:    "Current time: ",
		PingReply:     "Pong! The bot is online!",
		IdentityReply: "Yes, that's me! How can I help you?",
		ByeReply:      "Goodbye! Have a nice day!",

		Greeting:           "Hello! Thank you for adding me as a friend!",
		ImageAck:           "Thank you for sending an image!",
		AudioAck:           "Thank you for sending an audio message!",
		UnsupportedReply:   "Sorry, I don't support this message type yet.",
		NotConfiguredReply: "Sorry, the AI is not set up yet. Please ask the administrator to configure the Gemini API key.",
		PayFailedPrefix:    "Sorry, the payment request failed: ",

		PromptTemplate: "You are a helpful and friendly chatbot assistant. Please respond to the following message in a conversational and helpful way. Keep responses concise but informative (max 500 characters for LINE messaging). Message: ",

		ConnectApology:   "Sorry, I'm having trouble connecting to my AI brain right now.",
		StatusApology:    "Sorry, I'm experiencing some technical difficulties.",
		MalformedApology: "Sorry, I couldn't generate a proper response.",
	}
}

func kimutakuProfile() *Profile {
	return &Profile{
		Name: "kimutaku",
		aliases: map[string]Command{
			"help":       CommandHelp,
			"ヘルプ":     CommandHelp,
			"ช่วยเหลือ":  CommandHelp,
			"time":       CommandTime,
			"時間":       CommandTime,
			"เวลา":       CommandTime,
			"ping":       CommandPing,
			"kimutaku":   CommandIdentity,
			"キムタク":   CommandIdentity,
			"kimura":     CommandIdentity,
			"キムラ":     CommandIdentity,
			"pay":        CommandPay,
		},
		HelpText:      "こんにちは！私はKimutaku Botです。Gemini AIを搭載しています！\n- 質問をしてください\n- 会話を楽しみましょう\n- 様々なトピックでお手伝いします\n- 'time'で現在時刻を表示\n- 'pay'で支払いリンクを表示\n\nメッセージを送ってください！",
		TimeLayout:    "2006年01月02日 15:04:05 (MST)",
		TimePrefix:    "現在時刻: ",
		TimeSuffix:    " (Kimutaku Bot)",
		PingReply:     "Pong! Kimutaku Botはオンラインです！",
		IdentityReply: "はい、私がKimutaku Botです！何かお手伝いできることはありますか？",

		Greeting:           "こんにちは！友達に追加していただき、ありがとうございます！私はKimutaku Botです。",
		ImageAck:           "こんにちは！画像をありがとうございます！ (Kimutaku Bot)",
		AudioAck:           "音声メッセージをありがとうございます！ (Kimutaku Bot)",
		UnsupportedReply:   "申し訳ございませんが、そのメッセージタイプはサポートしていません。 (Kimutaku Bot)",
		NotConfiguredReply: "申し訳ございませんが、AIの設定がまだ完了していません。管理者にGemini APIキーの設定を依頼してください。",
		PayFailedPrefix:    "申し訳ございませんが、支払いリクエストに失敗しました: ",

		PromptTemplate: "You are Kimutaku, a charismatic Japanese celebrity and actor. You are friendly, confident, and speak in a casual, cool manner. You prefer to respond in Japanese but can also use English when appropriate. You have a charming personality and often use expressions like 'チョマテヨ' (wait a minute). Keep responses engaging and conversational (max 500 characters for LINE messaging). Message: ",

		ConnectApology:   "Sorry, I'm having trouble connecting to my AI brain right now.",
		StatusApology:    "Sorry, I'm experiencing some technical difficulties.",
		MalformedApology: "Sorry, I couldn't generate a proper response.",
	}
}
