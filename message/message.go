package message

import (
	"fmt"
	"strings"
)

// LeaveCommand is the reserved line that ends a session from the sender's
// side. Matched case-insensitively after trimming.
const LeaveCommand = "/quit"

// Msg is a single line of text framed for delivery to a client.
type Msg interface {
	// Render returns the framed wire text, without a line terminator.
	Render() string
	String() string
}

// ChatMsg is a relayed chat line, tagged with the sender's display name.
type ChatMsg struct {
	from string
	body string
}

func NewChatMsg(from string, body string) ChatMsg {
	return ChatMsg{from: from, body: body}
}

func (m ChatMsg) From() string {
	return m.from
}

func (m ChatMsg) String() string {
	return m.body
}

// Render tags the body with the sender's name. The "name: " tag keeps relayed
// content distinct from bracketed system notices, whatever the body contains.
func (m ChatMsg) Render() string {
	return fmt.Sprintf("  %s: %s", m.from, m.body)
}

// NoticeMsg is system text sent by the service itself. The bracket framing is
// reserved for notices and never used for relayed chat.
type NoticeMsg struct {
	body string
}

func NewNoticeMsg(body string) NoticeMsg {
	return NoticeMsg{body: body}
}

func (m NoticeMsg) String() string {
	return m.body
}

func (m NoticeMsg) Render() string {
	return fmt.Sprintf("  [%s]", m.body)
}

// IsLeave reports whether a received line is the leave command.
func IsLeave(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), LeaveCommand)
}
