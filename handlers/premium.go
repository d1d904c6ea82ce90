package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/skip2/go-qrcode"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/telebot.v3"

	"teradl-bot/database"
	"teradl-bot/ledger"
	"teradl-bot/models"
	"teradl-bot/utils"
)

// BtnBuyPlan is the callback template for plan buttons; every plan button
// shares the unique and carries its plan id as payload.
var BtnBuyPlan = telebot.Btn{Unique: "buy_plan"}

var pricePrinter = message.NewPrinter(language.English)

// planMenu builds the inline keyboard of purchasable plans, cheapest first.
func (h *Handler) planMenu() *telebot.ReplyMarkup {
	ids := make([]string, 0, len(h.Cfg.Plans))
	for id := range h.Cfg.Plans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return h.Cfg.Plans[ids[i]].Days < h.Cfg.Plans[ids[j]].Days
	})

	kb := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(ids)+1)
	for _, id := range ids {
		p := h.Cfg.Plans[id]
		label := pricePrinter.Sprintf("💎 %d days – ₹%d", p.Days, p.Price)
		rows = append(rows, kb.Row(kb.Data(label, BtnBuyPlan.Unique, id)))
	}
	rows = append(rows, kb.Row(BtnBack))
	kb.Inline(rows...)
	return kb
}

// Premium shows the plan menu, or the remaining window for active premium.
func (h *Handler) Premium(c telebot.Context) error {
	ctx, cancel := reqCtx()
	defer cancel()

	a, err := h.Ledger.GetOrCreate(ctx, c.Sender().ID)
	if err != nil {
		return c.Send(tryLater)
	}

	now := h.Clock.Now()
	if ledger.IsPremiumActive(a, now) {
		remaining := a.PremiumExpiry.Sub(now).Round(time.Hour)
		msg := fmt.Sprintf(
			"✨ <b>Premium is active</b> ✨\n\n"+
				"⏳ About <b>%d hours</b> left.\n"+
				"Buying another plan extends your current one, it never resets it.",
			int(remaining.Hours()),
		)
		if c.Callback() != nil {
			return c.Edit(msg, h.planMenu(), telebot.ModeHTML)
		}
		return c.Send(msg, h.planMenu(), telebot.ModeHTML)
	}

	msg := "💎 <b>Premium plans</b>\n\n" +
		"✨ Unlimited downloads, no daily cap\n" +
		"⚡ Priority fetching\n\n" +
		"Pick a plan, pay via the UPI QR you'll receive, and an admin will activate it shortly after payment."
	if c.Callback() != nil {
		return c.Edit(msg, h.planMenu(), telebot.ModeHTML)
	}
	return c.Send(msg, h.planMenu(), telebot.ModeHTML)
}

// BuyPlan handles a plan button press: records a pending payment and sends
// the UPI QR for the exact amount.
func (h *Handler) BuyPlan(c telebot.Context) error {
	planID := c.Data()
	plan, ok := h.Cfg.Plans[planID]
	if !ok {
		return c.Send("❌ That plan is no longer available.")
	}
	if h.Cfg.UPIAddress == "" {
		return c.Send("⚠️ Payments are not set up yet. Please contact the admin directly.")
	}

	ctx, cancel := reqCtx()
	defer cancel()

	now := h.Clock.Now()
	userID := c.Sender().ID
	paymentID := utils.GeneratePaymentID(now)

	pending := &models.PaymentPending{
		PaymentID: paymentID,
		UserID:    userID,
		PlanID:    planID,
		Days:      plan.Days,
		Amount:    plan.Price,
		CreatedAt: now,
	}
	if err := database.SavePendingPayment(ctx, pending); err != nil {
		log.Println("❌ Failed to save pending payment:", err)
		return c.Send(tryLater)
	}

	upiURI := fmt.Sprintf("upi://pay?pa=%s&pn=TeraboxBot&am=%d&cu=INR&tn=%s",
		url.QueryEscape(h.Cfg.UPIAddress), plan.Price, paymentID)

	qrFile := fmt.Sprintf("qr-%d.png", userID)
	if err := qrcode.WriteFile(upiURI, qrcode.Medium, 256, qrFile); err != nil {
		log.Println("❌ Failed to generate QR:", err)
		return c.Send(tryLater)
	}
	defer os.Remove(qrFile)

	caption := pricePrinter.Sprintf(
		"💎 <b>Premium payment (UPI)</b>\n\n"+
			"💲 Amount: ₹%d\n"+
			"🔐 Plan: %d days\n"+
			"🧾 Payment ID: <code>%s</code>\n\n"+
			"Scan the QR with any UPI app. Your premium is activated once the payment is confirmed.",
		plan.Price, plan.Days, paymentID,
	)
	photo := &telebot.Photo{File: telebot.FromDisk(qrFile), Caption: caption}
	return c.Send(photo, telebot.ModeHTML)
}

// AddPremium is the admin command: /addpremium <user_id> <days>. The admin
// check lives here, not in the ledger.
func (h *Handler) AddPremium(c telebot.Context) error {
	if c.Sender().ID != h.Cfg.AdminID {
		return c.Send("❌ You don't have access to this command.")
	}

	args := c.Args()
	if len(args) != 2 {
		return c.Send("Usage: /addpremium <user_id> <days>")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return c.Send("❌ Invalid user id.")
	}
	days, err := strconv.Atoi(args[1])
	if err != nil || days <= 0 {
		return c.Send("❌ Days must be a positive number.")
	}

	ctx, cancel := reqCtx()
	defer cancel()

	a, err := h.Ledger.GrantPremium(ctx, userID, days)
	if err != nil {
		log.Println("❌ Grant premium failed:", err)
		return c.Send(tryLater)
	}

	// Settle the user's pending payment, if one exists.
	if pending, err := database.FindPendingPayment(ctx, userID); err == nil {
		settled := &models.PaymentSuccess{
			PaymentID:   pending.PaymentID,
			UserID:      pending.UserID,
			PlanID:      pending.PlanID,
			Days:        pending.Days,
			Amount:      pending.Amount,
			ActivatedAt: h.Clock.Now(),
		}
		if err := database.SettlePayment(ctx, settled); err != nil {
			log.Println("⚠️ Failed to settle payment:", err)
		}
	} else if !errors.Is(err, ledger.ErrNotFound) {
		log.Println("⚠️ Failed to look up pending payment:", err)
	}

	expiry := a.PremiumExpiry.In(h.Clock.Now().Location()).Format("02 January 2006 - 15:04")
	recipient := &telebot.User{ID: userID}
	notice := fmt.Sprintf(
		"✨ Your premium is active! ✨\n\n"+
			"🎁 <b>Added:</b> %d days\n"+
			"⏰ <b>Valid until:</b> %s\n\n"+
			"Enjoy unlimited downloads!",
		days, expiry,
	)
	if _, err := c.Bot().Send(recipient, notice, telebot.ModeHTML); err != nil {
		log.Println("⚠️ Failed to notify user:", err)
	}

	return c.Send(fmt.Sprintf("✅ Premium granted to %d until %s.", userID, expiry))
}
