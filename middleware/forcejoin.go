package middleware

import (
	"gopkg.in/telebot.v3"
)

// MustJoinChannel gates the bot behind channel membership. chatID is the
// numeric channel id; zero disables the check.
func MustJoinChannel(chatID int64, joinURL string) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if chatID == 0 {
				return next(c)
			}

			chat := &telebot.Chat{ID: chatID}
			member, err := c.Bot().ChatMemberOf(chat, c.Sender())
			if err != nil {
				// Membership unknown: let the request through rather than
				// locking everyone out when the channel lookup is broken.
				return next(c)
			}

			if member.Role == telebot.Left || member.Role == telebot.Kicked {
				kb := &telebot.ReplyMarkup{}
				kb.Inline(kb.Row(
					telebot.Btn{Text: "📢 Join Channel", URL: joinURL},
				))
				return c.Send(
					"📢 To use this bot you need to join our channel first, then try again.",
					kb,
				)
			}
			return next(c)
		}
	}
}
