// Package notify tells organizers about sessions that need manual review.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"festivalscheduling/internal/domain"

	"github.com/slack-go/slack"
)

// maxListedSessions bounds the session list in one message.
const maxListedSessions = 20

// slackPoster is the subset of the Slack client used here.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type slackNotifier struct {
	client    slackPoster
	channelID string
	logger    *slog.Logger
}

// NewSlackNotifier posts review notices to a Slack channel. Without a token or
// channel it returns a notifier that only logs.
func NewSlackNotifier(token, channelID string, logger *slog.Logger) domain.ReviewNotifier {
	logger = logger.With("component", "notify")
	if token == "" || channelID == "" {
		logger.Info("slack notifications disabled")
		return &logNotifier{logger: logger}
	}
	return &slackNotifier{client: slack.New(token), channelID: channelID, logger: logger}
}

func (n *slackNotifier) NotifyFlaggedSessions(ctx context.Context, festival *domain.Festival, flagged []*domain.Session) error {
	if len(flagged) == 0 {
		return nil
	}
	_, ts, err := n.client.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(FlaggedMessage(festival, flagged), false))
	if err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	n.logger.InfoContext(ctx, "review notice posted", "festival_id", festival.ID, "sessions", len(flagged), "ts", ts)
	return nil
}

type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) NotifyFlaggedSessions(ctx context.Context, festival *domain.Festival, flagged []*domain.Session) error {
	if len(flagged) == 0 {
		return nil
	}
	n.logger.WarnContext(ctx, "sessions kept for manual review", "festival_id", festival.ID, "sessions", len(flagged))
	return nil
}

// FlaggedMessage renders the review notice for sessions an import could not remove.
func FlaggedMessage(festival *domain.Festival, flagged []*domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*: %d session(s) missing from the latest import still have bookings and were kept. Please review:\n",
		festival.Name, len(flagged))
	for i, s := range flagged {
		if i == maxListedSessions {
			fmt.Fprintf(&b, "…and %d more\n", len(flagged)-maxListedSessions)
			break
		}
		fmt.Fprintf(&b, "• %s (%s %s, %d booked)\n", s.Title, s.Day, s.StartTime, s.BookedSeats())
	}
	return b.String()
}
