package pumpbot

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pumpwatch/pumpbot/internal/util"
	"github.com/pumpwatch/pumpbot/scraper"
	"github.com/pumpwatch/pumpbot/solana"
)

// Telegram rejects messages above 4096 characters. Truncation kicks in a
// little earlier to leave room for the notice.
const (
	maxMessageLen   = 4000
	truncateAt      = 3900
	truncatedNotice = "\n\n... *Message truncated*"
)

const welcomeMessage = "🚀 *Welcome to the Pump.fun Coin Bot!* 🚀\n\n" +
	"I track the newest coins on pump.fun for you.\n\n" +
	"• /refresh - Show the latest coins\n" +
	"• /contract - Perpetuals smart contract info\n" +
	"• /help - Show help information\n\n" +
	"Click the *🔄 Refresh* button below to get started!"

const helpMessage = "ℹ️ *Help*\n\n" +
	"• `/start` - Show welcome message and refresh button\n" +
	"• `/refresh` - Fetch the latest coin data\n" +
	"• `/contract` - Show perpetuals smart contract info\n" +
	"• `/help` - Show this message\n\n" +
	"How it works:\n" +
	"1. Click the 🔄 Refresh button to fetch latest data\n" +
	"2. The bot will show coin information including price, market cap, 24h change and volume\n\n" +
	"⚠️ *Always DYOR before investing*"

const unknownMessage = "❓ *Unknown Command*\n\n" +
	"I didn't understand that. Here's what I can do:\n\n" +
	"• `/start` - Get started with the bot\n" +
	"• `/refresh` - Get latest coin data\n" +
	"• `/help` - Show detailed help\n\n" +
	"Or just click the refresh button below! 👇"

const throttleWarning = "⏳ Easy there! You're sending requests too fast. " +
	"Please wait a moment and try again."

const fetchErrorMessage = "❌ *Couldn't fetch coin data right now.*\n\n" +
	"pump.fun may be unreachable. Try again in a minute."

// formatCoins renders a fetched board as a Markdown message
func formatCoins(board *scraper.Board) string {
	if board == nil || len(board.Coins) == 0 {
		return "❌ No coins found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚀 *Top %d New Coins from Pump.fun* 🚀\n", len(board.Coins))
	fmt.Fprintf(&b, "📅 Updated: %s\n\n", board.FetchedAt.UTC().Format("15:04:05 UTC"))

	for i, coin := range board.Coins {
		fmt.Fprintf(&b, "*%d. %s* (`%s`)\n", i+1, coin.Name, coin.Symbol)
		fmt.Fprintf(&b, "💵 Price: `%s`\n", coin.Price)
		fmt.Fprintf(&b, "📊 Market Cap: `%s`\n", coin.MarketCap)
		fmt.Fprintf(&b, "%s 24h: `%s`\n", changeEmoji(coin.Change24h), coin.Change24h)
		fmt.Fprintf(&b, "📈 Volume: `%s`\n\n", coin.Volume24h)
	}

	b.WriteString("📊 *Data Source:* pump.fun\n")
	if board.Fallback {
		b.WriteString("⚠️ _Showing sample data; live fetch unavailable_\n")
	}
	b.WriteString("🔄 Click refresh for latest data\n")
	b.WriteString("⚠️ *Always DYOR before investing*")

	return truncateMessage(b.String())
}

// formatContract renders a program lookup as a Markdown message. Degraded
// lookups still produce a usable message with the explorer link.
func formatContract(info *solana.ContractInfo) string {
	var b strings.Builder
	b.WriteString("🔗 *Perpetuals Smart Contract Info*\n\n")
	fmt.Fprintf(&b, "*Program ID:* `%s`\n", info.ProgramID)
	fmt.Fprintf(&b, "*Network:* %s\n\n", info.Network)

	switch {
	case info.Account == nil || !info.Account.Exists:
		msg := "Account not found or inactive"
		if info.Account != nil && info.Account.Message != "" {
			msg = info.Account.Message
		}
		fmt.Fprintf(&b, "⚠️ *Status:* %s\n\n", msg)
		b.WriteString("The contract data could not be fetched from the RPC, but you can view it directly on the explorer.\n\n")
	default:
		acct := info.Account
		sol := float64(acct.Lamports) / 1_000_000_000
		b.WriteString("✅ *Status:* Active on Devnet\n")
		fmt.Fprintf(&b, "*Balance:* %.9f SOL (%d lamports)\n", sol, acct.Lamports)
		fmt.Fprintf(&b, "*Owner Program:* `%s`\n", acct.Owner)
		fmt.Fprintf(&b, "*Executable:* %s\n", yesNo(acct.Executable))
		fmt.Fprintf(&b, "*Data Size:* %d bytes\n", acct.DataSize)
		fmt.Fprintf(&b, "*Rent Epoch:* %d\n\n", acct.RentEpoch)
	}

	b.WriteString("🔍 *Explorer:*\n")
	fmt.Fprintf(&b, "%s\n\n", info.ExplorerURL)
	fmt.Fprintf(&b, "📅 Fetched: %s", info.FetchedAt.UTC().Format(time.RFC3339))
	if info.Cached {
		b.WriteString(" _(cached)_")
	}

	return truncateMessage(b.String())
}

func changeEmoji(change string) string {
	if strings.HasPrefix(change, "-") {
		return "🔴"
	}
	return "🟢"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// truncateMessage caps a message below the Telegram limit, appending a notice
// when content was dropped. The cut backs up to a rune boundary so a
// multi-byte character (these messages are emoji-heavy) is never split into
// invalid UTF-8.
func truncateMessage(msg string) string {
	if len(msg) <= maxMessageLen {
		return msg
	}

	cut := truncateAt
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return util.SafeTruncate(msg, cut) + truncatedNotice
}
