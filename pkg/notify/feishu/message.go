package feishu

// Message 机器人消息
type Message interface {
	Type() string
	Content() any
}

// PostMessage 富文本消息
type PostMessage struct {
	title string
	lines [][]Element
}

// Element 富文本元素
type Element struct {
	Tag    string `json:"tag"`
	Text   string `json:"text,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// NewPostMessage 创建富文本消息
func NewPostMessage(title string) *PostMessage {
	return &PostMessage{title: title}
}

// AddLine 追加一行
func (m *PostMessage) AddLine(elements ...Element) *PostMessage {
	m.lines = append(m.lines, elements)
	return m
}

func (m *PostMessage) Type() string { return "post" }

func (m *PostMessage) Content() any {
	return map[string]any{
		"post": map[string]any{
			"zh_cn": map[string]any{
				"title":   m.title,
				"content": m.lines,
			},
		},
	}
}

// Text 文本元素
func Text(text string) Element {
	return Element{Tag: "text", Text: text}
}

// AtAll @所有人
func AtAll() Element {
	return Element{Tag: "at", UserID: "all"}
}
