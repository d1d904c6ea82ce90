package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"gopkg.in/telebot.v3"

	"teradl-bot/database"
	"teradl-bot/ledger"
	"teradl-bot/models"
	"teradl-bot/resolver"
	"teradl-bot/session"
	"teradl-bot/utils"
)

// HandleLink reacts to a message containing a share link: it checks the
// quota, stashes the link as a pending download and offers the confirm
// button. Nothing is charged yet; quota is only consumed once the resolve
// actually succeeds.
func (h *Handler) HandleLink(c telebot.Context) error {
	link := c.Text()
	if !resolver.IsSupportedLink(link) {
		return c.Send("❌ That doesn't look like a Terabox link I can handle. Please send a valid share link.")
	}

	ctx, cancel := reqCtx()
	defer cancel()

	userID := c.Sender().ID
	decision, err := h.Ledger.CanDownload(ctx, userID)
	if err != nil {
		// Fail closed: an unreadable account never becomes a free download.
		log.Println("❌ Quota check failed:", err)
		return c.Send(tryLater)
	}
	if !decision.Allowed {
		return h.sendQuotaExceeded(c, decision)
	}

	if err := h.Pending.Put(ctx, userID, link); err != nil {
		log.Println("❌ Failed to stash pending link:", err)
		return c.Send(tryLater)
	}

	kb := &telebot.ReplyMarkup{}
	kb.Inline(kb.Row(BtnFetch), kb.Row(BtnPremium))
	return c.Send(
		"🔗 Link received! Tap below to fetch it.\n\n"+
			"⏳ Fetching can take a little while for big files.",
		kb,
	)
}

// FetchPending resolves the stashed link after the user confirms. The quota
// is re-checked here because time passed since HandleLink ran, and the
// download is recorded only after the resolver actually delivered.
func (h *Handler) FetchPending(c telebot.Context) error {
	ctx, cancel := reqCtx()
	defer cancel()

	userID := c.Sender().ID
	link, err := h.Pending.Get(ctx, userID)
	if errors.Is(err, session.ErrNoPending) {
		return c.Edit("⌛ That link has expired. Please send it again.")
	}
	if err != nil {
		log.Println("❌ Failed to load pending link:", err)
		return c.Send(tryLater)
	}

	decision, err := h.Ledger.CanDownload(ctx, userID)
	if err != nil {
		log.Println("❌ Quota re-check failed:", err)
		return c.Send(tryLater)
	}
	if !decision.Allowed {
		return h.sendQuotaExceeded(c, decision)
	}

	status, _ := c.Bot().Send(c.Chat(), "🔍 Scanning the link, hang tight...")

	asset, err := h.resolveAsset(link)
	if err != nil {
		log.Printf("❌ Resolve %s: %v", link, err)
		msg := "😥 Couldn't get the file from that link. It may be dead, private, or the extractor is down. Please try again later."
		if status != nil {
			_, err := c.Bot().Edit(status, msg)
			return err
		}
		return c.Send(msg)
	}

	viewerURL := fmt.Sprintf("%s/view?url=%s&title=%s",
		h.Cfg.PublicURL,
		url.QueryEscape(link),
		url.QueryEscape(asset.Title),
	)

	kb := &telebot.ReplyMarkup{}
	kb.Inline(
		kb.Row(telebot.Btn{Text: "▶️ Stream / ⬇️ Download", URL: viewerURL}),
		kb.Row(BtnPremium),
	)
	caption := fmt.Sprintf(
		"🎥 <b>FILENAME</b>: <code>%s</code>\n📏 <b>SIZE</b>: <code>%s</code>\n\nTap the button to stream or download.",
		asset.Title, utils.FormatSize(asset.SizeBytes),
	)

	var sendErr error
	if asset.Thumbnail != "" {
		photo := &telebot.Photo{File: telebot.FromURL(asset.Thumbnail), Caption: caption}
		sendErr = c.Send(photo, kb, telebot.ModeHTML)
	} else {
		sendErr = c.Send(caption, kb, telebot.ModeHTML)
	}
	if sendErr != nil {
		return sendErr
	}

	// Asset delivered: now, and only now, charge the quota.
	a, err := h.Ledger.RecordDownload(ctx, userID)
	if err != nil {
		// The user already has their link; all we lost is bookkeeping.
		log.Println("❌ Failed to record download:", err)
	} else {
		dl := &models.Download{
			UserID: userID,
			Date:   h.Clock.Now(),
			Link:   link,
			Title:  asset.Title,
			Count:  a.DailyDownloads,
		}
		if err := database.LogDownload(ctx, dl); err != nil {
			log.Println("⚠️ Failed to log download:", err)
		}
	}

	if err := h.Pending.Delete(ctx, userID); err != nil {
		log.Println("⚠️ Failed to clear pending link:", err)
	}
	if status != nil {
		_ = c.Bot().Delete(status)
	}
	return nil
}

// Scraping a share link routinely takes tens of seconds, so resolution gets
// its own deadline instead of the short per-request one.
const resolveTimeout = 90 * time.Second

func (h *Handler) resolveAsset(link string) (*resolver.Asset, error) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	return h.Resolver.Resolve(ctx, link)
}

func (h *Handler) sendQuotaExceeded(c telebot.Context, d ledger.Decision) error {
	kb := &telebot.ReplyMarkup{}
	kb.Inline(kb.Row(BtnPremium))
	return c.Send(fmt.Sprintf(
		"⚠️ You've used <b>%d/%d</b> free downloads today.\n\n"+
			"Come back tomorrow, or go premium for unlimited downloads.",
		d.Current, d.Limit,
	), kb, telebot.ModeHTML)
}
