package line

import "fmt"

// Event types delivered on the webhook.
const (
	EventTypeMessage  = "message"
	EventTypeFollow   = "follow"
	EventTypeUnfollow = "unfollow"
	EventTypePostback = "postback"
)

// Message types carried by a message event.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeAudio = "audio"
)

// Envelope is the JSON body of an inbound webhook request.
type Envelope struct {
	Destination string  `json:"destination,omitempty"`
	Events      []Event `json:"events"`
}

// Event is one entry of the webhook envelope. Message and Postback are
// populated depending on Type.
type Event struct {
	Type       string    `json:"type"`
	ReplyToken string    `json:"replyToken,omitempty"`
	Timestamp  int64     `json:"timestamp,omitempty"`
	Source     Source    `json:"source"`
	Message    *Message  `json:"message,omitempty"`
	Postback   *Postback `json:"postback,omitempty"`
}

// Source identifies where an event originated.
type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// Message is the message payload of a message event.
type Message struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Postback carries the opaque data of a postback action.
type Postback struct {
	Data string `json:"data"`
}

// Context describes the chat a source belongs to, for log lines.
func (s Source) Context() string {
	switch s.Type {
	case "group":
		return fmt.Sprintf("group chat (ID: %s)", s.GroupID)
	case "room":
		return fmt.Sprintf("room chat (ID: %s)", s.RoomID)
	default:
		return "private chat"
	}
}

// UserIDOrUnknown returns the source user id, or "unknown" when absent.
func (s Source) UserIDOrUnknown() string {
	if s.UserID == "" {
		return "unknown"
	}
	return s.UserID
}
