package line

// FlexMessage is a structured card reply. Contents holds a flex container
// (bubble) built from FlexBox/FlexText/FlexButton components.
type FlexMessage struct {
	Type     string      `json:"type"`
	AltText  string      `json:"altText"`
	Contents *FlexBubble `json:"contents"`
}

// FlexBubble is the single-card flex container.
type FlexBubble struct {
	Type   string   `json:"type"`
	Header *FlexBox `json:"header,omitempty"`
	Body   *FlexBox `json:"body,omitempty"`
	Footer *FlexBox `json:"footer,omitempty"`
}

// FlexBox lays out child components vertically or horizontally.
type FlexBox struct {
	Type     string          `json:"type"`
	Layout   string          `json:"layout"`
	Contents []FlexComponent `json:"contents"`
}

// FlexComponent is a text, separator, or button element inside a box.
type FlexComponent struct {
	Type   string      `json:"type"`
	Text   string      `json:"text,omitempty"`
	Weight string      `json:"weight,omitempty"`
	Size   string      `json:"size,omitempty"`
	Color  string      `json:"color,omitempty"`
	Margin string      `json:"margin,omitempty"`
	Style  string      `json:"style,omitempty"`
	Action *FlexAction `json:"action,omitempty"`
}

// FlexAction binds a component to a tap action, e.g. opening a URI.
type FlexAction struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// NewFlexMessage wraps a bubble with its accessibility alt text.
func NewFlexMessage(altText string, bubble *FlexBubble) *FlexMessage {
	return &FlexMessage{Type: "flex", AltText: altText, Contents: bubble}
}
