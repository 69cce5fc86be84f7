// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/darty-tutor/darty/internal/util"
)

// TitleMaxRunes is how much of the first question becomes the title.
const TitleMaxRunes = 30

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Kind distinguishes how an assistant message is presented.
type Kind string

const (
	KindNormal Kind = ""
	KindError  Kind = "error"
	KindNotice Kind = "notice"
)

// Message is one turn of a conversation. Messages are never edited once
// appended.
type Message struct {
	Content string `json:"content"`
	Sender  Sender `json:"sender"`
	Kind    Kind   `json:"kind,omitempty"`
}

// UserMessage builds a message from the user.
func UserMessage(content string) Message {
	return Message{Content: content, Sender: SenderUser}
}

// AssistantMessage builds a normal assistant reply.
func AssistantMessage(content string) Message {
	return Message{Content: content, Sender: SenderAssistant}
}

// ErrorMessage builds an assistant message that reports a failure.
func ErrorMessage(content string) Message {
	return Message{Content: content, Sender: SenderAssistant, Kind: KindError}
}

// NoticeMessage builds an assistant message carrying a fixed client notice.
func NoticeMessage(content string) Message {
	return Message{Content: content, Sender: SenderAssistant, Kind: KindNotice}
}

// Session is one persisted conversation thread.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsEmpty reports whether the session has no messages yet.
func (s Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// HasUserMessage reports whether the user has sent anything in s.
func (s Session) HasUserMessage() bool {
	for _, m := range s.Messages {
		if m.Sender == SenderUser {
			return true
		}
	}
	return false
}

// Matches reports whether query occurs in the title or any message,
// ignoring case and Unicode normalisation differences.
func (s Session) Matches(query string) bool {
	q := fold(query)
	if q == "" {
		return true
	}
	if strings.Contains(fold(s.Title), q) {
		return true
	}
	for _, m := range s.Messages {
		if strings.Contains(fold(m.Content), q) {
			return true
		}
	}
	return false
}

func (s Session) clone() Session {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	return out
}

// TitleFromQuestion derives a session title from the first user message:
// the trimmed, NFC-normalised message, or its first TitleMaxRunes runes plus
// "..." when longer.
func TitleFromQuestion(question string) string {
	return util.EllipsizeRunes(norm.NFC.String(strings.TrimSpace(question)), TitleMaxRunes)
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
