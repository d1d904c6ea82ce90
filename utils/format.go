package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

// FormatSize renders a byte count the way the bot shows file sizes.
func FormatSize(bytes int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/kb)
	case bytes > 0:
		return fmt.Sprintf("%d B", bytes)
	default:
		return "unknown"
	}
}

// GeneratePaymentID builds a unique invoice-style id: PAY + timestamp + a
// random suffix so two payments created in the same second still differ.
func GeneratePaymentID(now time.Time) string {
	b := make([]byte, 3)
	rand.Read(b)
	return fmt.Sprintf("PAY%s%x", now.Format("20060102150405"), b)
}
