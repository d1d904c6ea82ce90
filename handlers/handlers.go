package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"gopkg.in/telebot.v3"

	"teradl-bot/config"
	"teradl-bot/ledger"
	"teradl-bot/resolver"
	"teradl-bot/session"
)

// Handler carries the collaborators every bot handler needs.
type Handler struct {
	Cfg      *config.Config
	Ledger   *ledger.Ledger
	Resolver resolver.Resolver
	Pending  *session.PendingStore
	Clock    ledger.Clock
}

// Inline buttons shared across handlers; registered against the bot in main.
var (
	Menu       = &telebot.ReplyMarkup{}
	BtnPremium = Menu.Data("💎 Buy Premium", "premium_plans")
	BtnLimit   = Menu.Data("📊 My Limit", "my_limit")
	BtnFetch   = Menu.Data("⬇️ Download", "fetch_pending")
	BtnBack    = Menu.Data("🔙 Back", "back_to_start")
)

func init() {
	Menu.Inline(Menu.Row(BtnPremium, BtnLimit))
}

func reqCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

const tryLater = "⚠️ Something went wrong on our side. Please try again in a bit."

// Start greets the user and creates their account record on first contact.
func (h *Handler) Start(c telebot.Context) error {
	ctx, cancel := reqCtx()
	defer cancel()

	if _, err := h.Ledger.GetOrCreate(ctx, c.Sender().ID); err != nil {
		// Not fatal for the welcome message; the account will be created on
		// the first real download attempt instead.
		log.Println("❌ Failed to create account:", err)
	}

	welcome := fmt.Sprintf(
		"👋 Welcome to Terabox Downloader Bot!\n\n"+
			"🔗 Send me any Terabox share link and I'll get you a download/stream link.\n\n"+
			"📌 Free users get <b>%d downloads per day</b>.\n"+
			"💎 Premium removes the limit entirely. Tap below to see plans.",
		h.Ledger.DailyLimit(),
	)

	if c.Callback() != nil {
		return c.Edit(welcome, Menu, telebot.ModeHTML)
	}
	return c.Send(welcome, Menu, telebot.ModeHTML)
}

// Limit shows the user's counters and premium window.
func (h *Handler) Limit(c telebot.Context) error {
	ctx, cancel := reqCtx()
	defer cancel()

	a, err := h.Ledger.GetOrCreate(ctx, c.Sender().ID)
	if err != nil {
		return c.Send(tryLater)
	}

	now := h.Clock.Now()
	if ledger.IsPremiumActive(a, now) {
		msg := fmt.Sprintf(
			"✨ You are a <b>Premium</b> user. No daily limit!\n\n"+
				"⏰ Premium active until: <b>%s</b>\n"+
				"⬇️ Lifetime downloads: <b>%d</b>",
			a.PremiumExpiry.In(now.Location()).Format("02 January 2006 - 15:04"),
			a.TotalDownloads,
		)
		return c.Send(msg, telebot.ModeHTML)
	}

	used := a.DailyDownloads
	if a.LastDownloadDate != nil && !ledger.SameDay(a.LastDownloadDate.In(now.Location()), now) {
		// Counter is stale from a previous day; it will be reset on the next
		// download attempt. Show what the user effectively has.
		used = 0
	}
	remaining := h.Ledger.DailyLimit() - used
	if remaining < 0 {
		remaining = 0
	}

	msg := fmt.Sprintf(
		"📊 Today's limit: <b>%d</b>\n"+
			"⬇️ Used today: <b>%d</b>\n"+
			"✅ Remaining: <b>%d</b>\n"+
			"📈 Lifetime downloads: <b>%d</b>\n\n"+
			"💎 Want unlimited downloads? Check /premium.",
		h.Ledger.DailyLimit(), used, remaining, a.TotalDownloads,
	)
	return c.Send(msg, telebot.ModeHTML)
}

// Stats shows bot-wide aggregates.
func (h *Handler) Stats(c telebot.Context) error {
	ctx, cancel := reqCtx()
	defer cancel()

	s, err := h.Ledger.Stats(ctx)
	if err != nil {
		return c.Send(tryLater)
	}

	msg := fmt.Sprintf(
		"📊 <b>Bot statistics</b>\n\n"+
			"👤 Total users: <b>%d</b>\n"+
			"💎 Premium users: <b>%d</b>\n"+
			"⬇️ Total downloads: <b>%d</b>",
		s.TotalUsers, s.PremiumUsers, s.TotalDownloads,
	)
	return c.Send(msg, telebot.ModeHTML)
}
