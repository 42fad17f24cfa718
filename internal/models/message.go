package models

import "time"

// ContentType tags how Content should be interpreted by a renderer.
type ContentType string

// ContentTypePlain passes markup through untouched.
const ContentTypePlain ContentType = "PLAIN"

// Message is the stored form of a feed entry.
type Message struct {
	ID            string      `json:"id" bson:"_id"`
	Content       string      `json:"content" bson:"content" validate:"required"`
	ContentType   ContentType `json:"content_type" bson:"content_type" validate:"required,oneof=PLAIN"`
	Sent          time.Time   `json:"sent" bson:"sent"`
	UserName      string      `json:"user_name" bson:"user_name" validate:"required,max=255"`
	UserAvatarURL string      `json:"user_avatar_url" bson:"user_avatar_url" validate:"required,url"`
}

// AuthorView is the wire shape of a message author.
type AuthorView struct {
	Name      string `json:"name" validate:"required,max=255"`
	AvatarURL string `json:"avatarUrl" validate:"required,url"`
}

// MessageView is the wire shape of a message. ID is only a cursor token.
type MessageView struct {
	ID      string     `json:"id,omitempty"`
	Content string     `json:"content" validate:"required"`
	Author  AuthorView `json:"author"`
	SentAt  time.Time  `json:"sentAt"`
}

// ToView maps a stored message to its wire form.
func ToView(m Message) MessageView {
	return MessageView{
		ID:      m.ID,
		Content: m.Content,
		Author: AuthorView{
			Name:      m.UserName,
			AvatarURL: m.UserAvatarURL,
		},
		SentAt: m.Sent,
	}
}

// FromView builds an unsaved message from its wire form. The id is left for
// the store to assign and sent is reduced to millisecond precision in UTC.
func FromView(v MessageView) Message {
	return Message{
		Content:       v.Content,
		ContentType:   ContentTypePlain,
		Sent:          TruncateSent(v.SentAt),
		UserName:      v.Author.Name,
		UserAvatarURL: v.Author.AvatarURL,
	}
}

// TruncateSent normalizes a timestamp to the precision every backend keeps.
func TruncateSent(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
