package slack

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/slack-go/slack"
)

const (
	maxHeaderChars  = 150
	maxSectionChars = 3000
	// Slack rejects messages with more than 50 blocks
	maxTicketsPerMessage = 15
)

func buildRegisteredBlocks(tickets []*model.Ticket, baseURL string) []slack.Block {
	header := fmt.Sprintf("%d new ticket(s) from %s", len(tickets), tickets[0].CompanyName)
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, truncate(header, maxHeaderChars), true, false),
		),
	}

	shown := tickets
	if len(shown) > maxTicketsPerMessage {
		shown = shown[:maxTicketsPerMessage]
	}

	for _, ticket := range shown {
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, truncate(ticketSummary(ticket), maxSectionChars), false, false),
				nil, nil,
			),
			slack.NewContextBlock("",
				slack.NewTextBlockObject(slack.MarkdownType, ticketContext(ticket, baseURL), false, false),
			),
		)
	}

	if rest := len(tickets) - len(shown); rest > 0 {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("...and %d more", rest), false, false),
		))
	}

	return blocks
}

func buildCompletedBlocks(ticket *model.Ticket) []slack.Block {
	header := ":white_check_mark: " + ticket.Title
	contextText := fmt.Sprintf("`%s`  |  %s", ticket.ID, ticket.CompanyName)
	if ticket.CompletedAt != nil {
		contextText += "  |  " + ticket.CompletedAt.Format("2006-01-02 15:04 MST")
	}

	return []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, truncate(header, maxHeaderChars), true, false),
		),
		slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, contextText, false, false),
		),
	}
}

func ticketSummary(ticket *model.Ticket) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s*\n%s", priorityEmoji(ticket.Priority), ticket.Title, ticket.Description)
	if len(ticket.AcceptanceCriteria) > 0 {
		sb.WriteString("\n")
		for _, c := range ticket.AcceptanceCriteria {
			sb.WriteString("\n• " + c)
		}
	}
	return sb.String()
}

func ticketContext(ticket *model.Ticket, baseURL string) string {
	parts := []string{
		fmt.Sprintf("`%s`", ticket.ID),
		fmt.Sprintf("Priority: %s", ticket.Priority),
		fmt.Sprintf("Estimate: %gh", ticket.EstimatedHours),
	}
	if len(ticket.Dependencies) > 0 {
		parts = append(parts, "Depends on: "+strings.Join(ticket.Dependencies, ", "))
	}
	if baseURL != "" {
		parts = append(parts, fmt.Sprintf(":link: <%s/engineer/tickets|Open>", strings.TrimRight(baseURL, "/")))
	}
	return strings.Join(parts, "  |  ")
}

func registeredFallbackText(tickets []*model.Ticket) string {
	titles := make([]string, len(tickets))
	for i, t := range tickets {
		titles[i] = t.Title
	}
	return fmt.Sprintf("New tickets from %s: %s", tickets[0].CompanyName, strings.Join(titles, ", "))
}

func priorityEmoji(p types.Priority) string {
	switch p {
	case types.PriorityHigh:
		return ":red_circle:"
	case types.PriorityMedium:
		return ":large_orange_circle:"
	default:
		return ":white_circle:"
	}
}

// truncate cuts s to at most limit characters without splitting a rune
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
