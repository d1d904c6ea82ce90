package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/telebot.v3"

	"teradl-bot/config"
	"teradl-bot/database"
	"teradl-bot/handlers"
	"teradl-bot/ledger"
	"teradl-bot/middleware"
	"teradl-bot/resolver"
	"teradl-bot/session"
	"teradl-bot/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Config error:", err)
	}

	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Fatal("❌ MongoDB connection failed:", err)
	}
	defer database.Disconnect()

	store := database.NewUserStore()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Fatal("❌ Index setup failed:", err)
		}
		cancel()
	}

	clock, err := ledger.NewZoneClock(cfg.QuotaZone)
	if err != nil {
		log.Fatalf("❌ Invalid quota timezone %q: %v", cfg.QuotaZone, err)
	}
	ldg := ledger.New(store, clock, cfg.FreeLimit)

	pending, err := session.NewPendingStore(cfg.RedisAddr, cfg.RedisPass, 30*time.Minute)
	if err != nil {
		log.Fatal("❌ Redis connection failed:", err)
	}
	defer pending.Close()
	log.Println("✅ Connected to Redis")

	rsv := resolver.NewTeraboxClient(cfg.ResolverURL)

	srv, err := stream.NewServer(rsv, cfg.CacheDir, database.HealthCheck)
	if err != nil {
		log.Fatal("❌ Stream server setup failed:", err)
	}
	go func() {
		if err := srv.Run(cfg.ListenAddr); err != nil {
			log.Fatal("❌ Stream server failed:", err)
		}
	}()

	pref := telebot.Settings{
		Token: cfg.BotToken,
		Client: &http.Client{
			Timeout: 2 * time.Minute,
		},
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatal(err)
	}

	// Private chats only, except for the admin.
	bot.Use(func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if c.Sender().ID == cfg.AdminID {
				return next(c)
			}
			if c.Chat().Type != telebot.ChatPrivate {
				return c.Send("❌ This bot only works in direct messages.")
			}
			return next(c)
		}
	})
	bot.Use(middleware.AntiSpam(cfg.AdminID))
	bot.Use(middleware.MustJoinChannel(cfg.ForceChannelID, cfg.ForceChannelURL))

	h := &handlers.Handler{
		Cfg:      cfg,
		Ledger:   ldg,
		Resolver: rsv,
		Pending:  pending,
		Clock:    clock,
	}

	bot.Handle("/start", h.Start)
	bot.Handle("/limit", h.Limit)
	bot.Handle("/premium", h.Premium)
	bot.Handle("/stats", h.Stats)
	bot.Handle("/addpremium", h.AddPremium)

	bot.Handle(&handlers.BtnPremium, h.Premium)
	bot.Handle(&handlers.BtnLimit, h.Limit)
	bot.Handle(&handlers.BtnFetch, h.FetchPending)
	bot.Handle(&handlers.BtnBack, h.Start)
	bot.Handle(&handlers.BtnBuyPlan, h.BuyPlan)

	bot.Handle(telebot.OnText, func(c telebot.Context) error {
		text := strings.TrimSpace(c.Text())
		if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
			return h.HandleLink(c)
		}
		return c.Send("🔗 Send me a Terabox share link, or use /start to see what I can do.")
	})

	// Hourly bookkeeping sweep; lazy expiry keeps working even if this never
	// runs.
	sched := cron.New()
	sched.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := ldg.SweepExpired(ctx)
		if err != nil {
			log.Println("⚠️ Premium sweep failed:", err)
			return
		}
		if n > 0 {
			log.Printf("🧹 Premium sweep cleared %d expired accounts", n)
		}
	})
	sched.Start()
	defer sched.Stop()

	log.Println("🤖 Bot started")
	bot.Start()
}
