// Package hackchat implements the websocket transport to a hack.chat-style
// group chat server.
package hackchat

// Event is a decoded inbound protocol frame. Only the fields the bot reads
// are declared; everything else on the wire is ignored.
type Event struct {
	Cmd   string `json:"cmd"`
	Nick  string `json:"nick,omitempty"`
	Text  string `json:"text,omitempty"`
	Trip  string `json:"trip,omitempty"`
	Admin bool   `json:"admin,omitempty"`
	Mod   bool   `json:"mod,omitempty"`
}

// ChatMessage is an outbound in-channel chat send.
type ChatMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text"`
}

// NewChatMessage wraps text as a chat send.
func NewChatMessage(text string) ChatMessage {
	return ChatMessage{Cmd: "chat", Text: text}
}

// PingMessage is the keep-alive frame.
type PingMessage struct {
	Cmd string `json:"cmd"`
}

// NewPingMessage builds a keep-alive frame.
func NewPingMessage() PingMessage {
	return PingMessage{Cmd: "ping"}
}

type joinMessage struct {
	Cmd     string `json:"cmd"`
	Channel string `json:"channel"`
	Nick    string `json:"nick"`
}
