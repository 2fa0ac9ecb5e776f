// Package chat holds the state of one chat with the portfolio assistant and
// drives replies through the backend.
package chat

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/frantai/folio/pkg/sse"
)

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FailureText replaces an assistant reply that could not be completed.
const FailureText = "Error: Failed to get response. Please try again."

// Message is one entry of a conversation.
type Message struct {
	Role    Role
	Content string

	// ResponseTime is the backend-reported generation time of an assistant
	// reply, zero when unknown.
	ResponseTime time.Duration

	// Streaming is set while tokens may still be appended.
	Streaming bool

	// Failed marks a reply replaced by FailureText.
	Failed bool
}

// Greeting is the assistant's opening line for a portfolio about subject.
func Greeting(subject string) string {
	return fmt.Sprintf("Hi! I'm here to help answer any questions you have about %s. What would you like to know?", subject)
}

// Conversation is an ordered list of messages. It is safe for concurrent use.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
	greeting string
}

// NewConversation returns an empty conversation. A non-empty greeting is
// shown by Open.
func NewConversation(greeting string) *Conversation {
	return &Conversation{greeting: greeting}
}

// Open adds the greeting when the conversation is empty.
func (c *Conversation) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.messages) == 0 && c.greeting != "" {
		c.messages = append(c.messages, Message{Role: RoleAssistant, Content: c.greeting})
	}
}

// Begin appends the user's message and an empty streaming reply.
func (c *Conversation) Begin(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages,
		Message{Role: RoleUser, Content: text},
		Message{Role: RoleAssistant, Streaming: true},
	)
}

// Apply folds a reply event into the streaming reply. Events arriving when
// no reply is streaming are ignored.
func (c *Conversation) Apply(ev sse.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reply := c.streaming()
	if reply == nil {
		return
	}

	switch e := ev.(type) {
	case sse.TokenEvent:
		reply.Content += e.Token
	case sse.DoneEvent:
		if e.HasResponseTime {
			reply.ResponseTime = e.ResponseTime
		}
		reply.Streaming = false
	}
}

// Finish ends the streaming reply as it stands.
func (c *Conversation) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reply := c.streaming(); reply != nil {
		reply.Streaming = false
	}
}

// Fail replaces the streaming reply with FailureText and returns the text
// received before the failure.
func (c *Conversation) Fail() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	reply := c.streaming()
	if reply == nil {
		return ""
	}

	partial := reply.Content
	*reply = Message{Role: RoleAssistant, Content: FailureText, Failed: true}
	return partial
}

// Reset removes every message and shows the greeting again.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()

	c.Open()
}

// Messages returns a copy of the conversation.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// streaming returns the in-progress reply. Callers hold mu.
func (c *Conversation) streaming() *Message {
	if len(c.messages) == 0 {
		return nil
	}
	last := &c.messages[len(c.messages)-1]
	if last.Role != RoleAssistant || !last.Streaming {
		return nil
	}
	return last
}
