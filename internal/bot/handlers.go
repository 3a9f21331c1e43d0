package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/services/player-stats-service/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StatsQuerier is the part of the stats service the bot talks to
type StatsQuerier interface {
	PlayerReport(ctx context.Context, name string) (models.PlayerStatsReport, error)
	ListPlayers(ctx context.Context) ([]models.PlayerSummary, error)
	SearchPlayers(ctx context.Context, query string) ([]models.PlayerSummary, error)
	Suggest(ctx context.Context, name string) []string
}

const helpText = "Available commands:\n" +
	"/stats <player> - Per-game averages and advanced stats\n" +
	"/players - List every player\n" +
	"/search <query> - Find players by name\n" +
	"/help - Show this message"

// maxListed caps how many players one reply lists
const maxListed = 50

type Handler struct {
	stats StatsQuerier
}

func NewHandler(stats StatsQuerier) *Handler {
	return &Handler{stats: stats}
}

// HandleCommand builds the reply for one command message
func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	command := strings.ToLower(update.Message.Command())
	args := strings.TrimSpace(update.Message.CommandArguments())

	switch command {
	case "start":
		msg.Text = "Welcome! Use /help to see available commands."
	case "help":
		msg.Text = helpText
	case "stats":
		h.handleStats(ctx, &msg, args)
	case "players":
		h.handlePlayers(ctx, &msg)
	case "search":
		h.handleSearch(ctx, &msg, args)
	default:
		msg.Text = "Unknown command. Use /help to see available commands."
	}

	return msg
}

func (h *Handler) handleStats(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a player name. Usage: /stats <player name>"
		return
	}

	report, err := h.stats.PlayerReport(ctx, args)
	switch {
	case errors.Is(err, models.ErrUnknownPlayer):
		msg.Text = fmt.Sprintf("No player named %q.", args)
		if suggestions := h.stats.Suggest(ctx, args); len(suggestions) > 0 {
			msg.Text += " Did you mean: " + strings.Join(suggestions, ", ") + "?"
		}
	case errors.Is(err, models.ErrNoGames):
		msg.Text = fmt.Sprintf("%s has no recorded games yet.", args)
	case err != nil:
		msg.Text = fmt.Sprintf("Error fetching stats: %v", err)
	default:
		msg.Text = FormatReport(report)
	}
}

func (h *Handler) handlePlayers(ctx context.Context, msg *tgbotapi.MessageConfig) {
	players, err := h.stats.ListPlayers(ctx)
	if err != nil {
		msg.Text = fmt.Sprintf("Error listing players: %v", err)
		return
	}
	msg.Text = formatPlayers(players, "No players yet.")
}

func (h *Handler) handleSearch(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a search term. Usage: /search <query>"
		return
	}

	players, err := h.stats.SearchPlayers(ctx, args)
	if err != nil {
		msg.Text = fmt.Sprintf("Error searching players: %v", err)
		return
	}
	msg.Text = formatPlayers(players, fmt.Sprintf("No players match %q.", args))
}

// FormatReport renders a report as a short plain-text block
func FormatReport(r models.PlayerStatsReport) string {
	t, a := r.Traditional, r.Advanced

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d %s)\n", r.PlayerName, r.GamesPlayed, plural(r.GamesPlayed, "game", "games"))
	fmt.Fprintf(&b, "FT %s  2P %s  3P %s\n", split(t.FreeThrows), split(t.TwoPoints), split(t.ThreePoints))
	fmt.Fprintf(&b, "PTS %.1f  REB %.1f  AST %.1f  STL %.1f  BLK %.1f  TOV %.1f\n",
		t.Points, t.Rebounds, t.Assists, t.Steals, t.Blocks, t.Turnovers)
	fmt.Fprintf(&b, "VAL %.1f  eFG%% %.1f  TS%% %.1f  HAST%% %.1f",
		a.Valorization, a.EffectiveFieldGoalPercentage, a.TrueShootingPercentage, a.HollingerAssistRatio)
	return b.String()
}

func split(s models.ShootingSplit) string {
	return fmt.Sprintf("%.1f/%.1f (%.1f%%)", s.Made, s.Attempts, s.ShootingPercentage)
}

func formatPlayers(players []models.PlayerSummary, empty string) string {
	if len(players) == 0 {
		return empty
	}

	var b strings.Builder
	for i, p := range players {
		if i == maxListed {
			fmt.Fprintf(&b, "... and %d more", len(players)-maxListed)
			break
		}
		fmt.Fprintf(&b, "%s - %s, %d %s\n", p.Name, p.Position, p.GamesPlayed, plural(p.GamesPlayed, "game", "games"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
