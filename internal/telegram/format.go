package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/netgram/netgram/internal/catalog"
)

const (
	startMessage = "🎬 *Welcome to NetGram Bot!*\n\n" +
		"Commands:\n" +
		"• `/search <movie>` - Search movies\n" +
		"• `/stats` - View statistics\n\n" +
		"Enjoy unlimited movies! 🍿"
	searchUsageMessage = "Usage: `/search <movie name>`"
	noResultsMessage   = "No movies found! 😔"
	authorizedMessage  = "✅ You are authorized as admin!"
	failureMessage     = "Something went wrong, please try again later."
)

func formatStats(count int) string {
	return fmt.Sprintf("📊 *Total Movies:* %d", count)
}

func formatSearchResults(records []*catalog.Record) string {
	if len(records) == 0 {
		return noResultsMessage
	}

	sb := &strings.Builder{}
	sb.WriteString("🎬 *Search Results:*\n\n")
	for _, record := range records[:min(len(records), searchResultLimit)] {
		fmt.Fprintf(sb, "*%s* (%d)\n", escape(record.Title), record.Year)
		fmt.Fprintf(sb, "⭐ %s | 💾 %s\n", formatRating(record.Rating), humanize.IBytes(uint64(max(record.FileSize, 0))))
		fmt.Fprintf(sb, "📥 [Download](%s) | 🎥 [Stream](%s) | 📱 [Telegram](%s)\n\n", record.DownloadURL, record.StreamURL, record.SourceURL)
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func formatRating(rating *float64) string {
	if rating == nil {
		return "N/A"
	}

	return strconv.FormatFloat(*rating, 'f', 1, 64) + "/10"
}

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}
