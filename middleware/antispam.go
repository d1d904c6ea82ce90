package middleware

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"gopkg.in/telebot.v3"
)

// commandThrottle prevents users from hammering commands and link messages.
// Purely in-memory: losing this state on restart just resets cooldowns.
type commandThrottle struct {
	mu           sync.RWMutex
	lastCommand  map[int64]time.Time
	commandDelay time.Duration
	warningCount map[int64]int
	banUntil     map[int64]time.Time
}

var throttle = &commandThrottle{
	lastCommand:  make(map[int64]time.Time),
	commandDelay: 2 * time.Second,
	warningCount: make(map[int64]int),
	banUntil:     make(map[int64]time.Time),
}

func init() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		for range ticker.C {
			throttle.cleanup()
		}
	}()
}

// cleanup removes inactive users from memory.
func (tr *commandThrottle) cleanup() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	now := time.Now()
	inactiveThreshold := 10 * time.Minute

	for userID, lastTime := range tr.lastCommand {
		if now.Sub(lastTime) > inactiveThreshold {
			delete(tr.lastCommand, userID)
			delete(tr.warningCount, userID)
		}
	}
	for userID, banTime := range tr.banUntil {
		if now.After(banTime) {
			delete(tr.banUntil, userID)
		}
	}
}

// AntiSpam enforces a short delay between commands. adminID is exempt.
func AntiSpam(adminID int64) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			userID := c.Sender().ID
			if userID == adminID {
				return next(c)
			}

			if banned, until := throttle.isBanned(userID); banned {
				remaining := time.Until(until)
				return c.Send(fmt.Sprintf(
					"🚫 <b>You are temporarily blocked for spamming.</b>\n\nTry again in %d seconds.",
					int(remaining.Seconds())+1,
				), telebot.ModeHTML)
			}

			if !strings.HasPrefix(c.Text(), "/") {
				return next(c)
			}

			allowed, waitTime := throttle.allow(userID)
			if !allowed {
				warnings := throttle.addWarning(userID)
				if warnings >= 5 {
					throttle.ban(userID, 5*time.Minute)
					return c.Send(
						"🚫 <b>Blocked for 5 minutes.</b>\n\nToo many rapid commands. Please slow down.",
						telebot.ModeHTML,
					)
				}
				return c.Send(fmt.Sprintf(
					"⏰ <b>Slow down!</b>\n\nWait <b>%d seconds</b> between commands.\nWarning %d/5.",
					int(waitTime.Seconds())+1,
					warnings,
				), telebot.ModeHTML)
			}

			throttle.resetWarnings(userID)
			throttle.record(userID)
			return next(c)
		}
	}
}

func (tr *commandThrottle) allow(userID int64) (bool, time.Duration) {
	tr.mu.RLock()
	lastTime, exists := tr.lastCommand[userID]
	tr.mu.RUnlock()

	if !exists {
		return true, 0
	}
	elapsed := time.Since(lastTime)
	if elapsed < tr.commandDelay {
		return false, tr.commandDelay - elapsed
	}
	return true, 0
}

func (tr *commandThrottle) record(userID int64) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.lastCommand[userID] = time.Now()
}

func (tr *commandThrottle) addWarning(userID int64) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.warningCount[userID]++
	return tr.warningCount[userID]
}

func (tr *commandThrottle) resetWarnings(userID int64) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.warningCount[userID] > 0 {
		tr.warningCount[userID] = 0
	}
}

func (tr *commandThrottle) ban(userID int64, d time.Duration) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.banUntil[userID] = time.Now().Add(d)
	tr.warningCount[userID] = 0
}

func (tr *commandThrottle) isBanned(userID int64) (bool, time.Time) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	banTime, exists := tr.banUntil[userID]
	if !exists || time.Now().After(banTime) {
		return false, time.Time{}
	}
	return true, banTime
}
