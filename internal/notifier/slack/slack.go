package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smashclub/internal/metrics"
	"github.com/mauv0809/smashclub/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	dryRun    bool
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// DryRun makes the notifier log messages instead of posting them.
func (s *Notifier) DryRun() *Notifier {
	s.dryRun = true
	return s
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message) (string, string, error) {
	if s.dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// SendSessionOpened announces a new session that is looking for players.
func (s *Notifier) SendSessionOpened(ctx context.Context, summary notifier.SessionSummary) error {
	_, _, err := s.sendMessage(ctx, s.formatSessionOpened(summary))
	return err
}

// SendMatchResult announces a completed match.
func (s *Notifier) SendMatchResult(ctx context.Context, summary notifier.SessionSummary) error {
	_, _, err := s.sendMessage(ctx, s.formatMatchResult(summary))
	return err
}

var matchTypeNames = map[string]string{
	"MS": "Men's singles",
	"WS": "Women's singles",
	"MD": "Men's doubles",
	"WD": "Women's doubles",
	"XD": "Mixed doubles",
}

func matchTypeName(matchType string) string {
	if name, ok := matchTypeNames[matchType]; ok {
		return name
	}
	return matchType
}

func formatTime(t time.Time) string {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		return t.Format("Monday 02 Jan, 15:04")
	}
	return t.In(loc).Format("Monday 02 Jan, 15:04")
}

// formatSessionOpened creates the Slack message for a new session using Block Kit.
func (s *Notifier) formatSessionOpened(summary notifier.SessionSummary) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header - The Header block itself provides bolding. No asterisks needed.
	headerText := slack.NewTextBlockObject("plain_text", ":badminton_racquet_and_shuttlecock: New match session open!", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	// Details - Use newlines for clear separation.
	detailsText := fmt.Sprintf("Type: %s\nTime: %s\nSpots: %d/%d",
		matchTypeName(summary.MatchType), formatTime(summary.SessionDate), len(summary.Players), summary.MaxPlayers)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	// Context - For simpler, single-line info.
	var contextElements []slack.MixedElement
	if fee := formatFee(summary); fee != "" {
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", fee, true, false))
	}
	if summary.BetCurrency != "" && summary.BetCurrency != "NONE" && summary.BetAmount > 0 {
		bet := fmt.Sprintf(":moneybag: Bet: %d %s per player", summary.BetAmount, strings.ToLower(summary.BetCurrency))
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", bet, true, false))
	}
	if summary.IsRanked {
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", ":chart_with_upwards_trend: Ranked", true, false))
	}
	if len(contextElements) > 0 {
		blocks = append(blocks, slack.NewContextBlock("", contextElements...))
	}

	return slack.NewBlockMessage(blocks...)
}

func formatFee(summary notifier.SessionSummary) string {
	var parts []string
	if summary.EntryFeePoints > 0 {
		parts = append(parts, fmt.Sprintf("%d points", summary.EntryFeePoints))
	}
	if summary.EntryFeeFeathers > 0 {
		parts = append(parts, fmt.Sprintf("%d feathers", summary.EntryFeeFeathers))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Entry fee: " + strings.Join(parts, " or ")
}

// formatMatchResult creates the Slack message for a finished match using Block Kit.
func (s *Notifier) formatMatchResult(summary notifier.SessionSummary) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := slack.NewTextBlockObject("plain_text", ":badminton_racquet_and_shuttlecock: Match finished!", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	// Details
	detailsText := fmt.Sprintf("%s at %s", matchTypeName(summary.MatchType), formatTime(summary.SessionDate))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, false, false), nil, nil))

	// Result
	team1 := strings.Join(summary.TeamNames(1), " & ")
	team2 := strings.Join(summary.TeamNames(2), " & ")
	winner := team1
	if summary.WinningTeam == 2 {
		winner = team2
	}
	resultHeaderText := fmt.Sprintf("Result: %s won! :trophy:", winner)
	scoresText := fmt.Sprintf("%s: %d\n%s: %d", team1, summary.Team1Score, team2, summary.Team2Score)
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("plain_text", scoresText, true, false),
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", resultHeaderText, true, false), fields, nil))

	// Rating changes, ranked only
	if summary.IsRanked {
		var changes []string
		for _, p := range summary.Players {
			if p.RatingChange == nil {
				continue
			}
			name := p.Nickname
			if name == "" {
				name = "Unknown player"
			}
			changes = append(changes, fmt.Sprintf("%s %+d", name, *p.RatingChange))
		}
		if len(changes) > 0 {
			blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "Rating: "+strings.Join(changes, ", "), true, false)))
		}
	} else {
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "Friendly match, ratings unchanged", true, false)))
	}

	return slack.NewBlockMessage(blocks...)
}
