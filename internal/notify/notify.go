// Package notify posts review requests to Slack when a synthesized plan
// carries roles that need human attention. Notification failures are
// logged and swallowed: a Slack outage must never fail a synthesis.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/agencyops/staffing-engine/internal/requestid"
	"github.com/agencyops/staffing-engine/internal/staffing"
)

// BotAPI abstracts the Slack API client for testing.
type BotAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts plan review requests to a fixed channel.
type Notifier struct {
	api     BotAPI
	channel string
	logger  zerolog.Logger
}

// New creates a notifier from a bot token and target channel.
func New(botToken, channel string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		api:     slack.New(botToken),
		channel: channel,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// NewWithAPI injects a BotAPI, used by tests.
func NewWithAPI(api BotAPI, channel string, logger zerolog.Logger) *Notifier {
	return &Notifier{api: api, channel: channel, logger: logger.With().Str("component", "notify").Logger()}
}

// PlanNeedsReview posts a review request for a plan. No-op when the plan
// has nothing flagged. Always returns nil; failures are logged.
func (n *Notifier) PlanNeedsReview(ctx context.Context, plan *staffing.Plan) error {
	if !plan.NeedsReview() {
		return nil
	}

	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(reviewSummary(plan), false),
		slack.MsgOptionBlocks(buildReviewBlocks(plan)...),
	)
	if err != nil {
		n.logger.Error().
			Err(err).
			Str("plan_id", plan.ID).
			Str("request_id", requestid.FromContext(ctx)).
			Msg("review notification failed")
	}
	return nil
}

// reviewSummary is the plain-text fallback shown in notifications.
func reviewSummary(plan *staffing.Plan) string {
	return fmt.Sprintf("Staffing plan %s for %s needs review (%d flagged roles)",
		plan.ID, plan.Project.Client.Value, countFlagged(plan))
}

func countFlagged(plan *staffing.Plan) int {
	count := 0
	for _, r := range plan.Roles {
		if r.NeedsReview {
			count++
		}
	}
	return count
}

// buildReviewBlocks renders the plan header and the flagged roles as
// Block Kit sections.
func buildReviewBlocks(plan *staffing.Plan) []slack.Block {
	header := fmt.Sprintf("*Staffing plan needs review*\n*Client:* %s\n*Project:* %s\n*Type:* %s\n*Confidence:* %.2f",
		plan.Project.Client.Value, plan.Project.Title.Value, plan.Project.Type, plan.OverallConfidence)

	var flagged []string
	for _, r := range plan.Roles {
		if !r.NeedsReview {
			continue
		}
		flagged = append(flagged,
			fmt.Sprintf("• %q (%.0f %s, confidence %.2f)",
				r.Title, r.AllocationValue, r.AllocationType, r.Confidence))
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", header, false, false),
			nil, nil,
		),
	}
	if len(flagged) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn",
				"*Unresolved roles:*\n"+strings.Join(flagged, "\n"), false, false),
			nil, nil,
		))
	}
	blocks = append(blocks, slack.NewContextBlock("plan_ref",
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("plan `%s`", plan.ID), false, false),
	))
	return blocks
}
