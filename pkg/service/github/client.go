package github

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/shurcooL/githubv4"
)

// Notifier opens one GitHub issue per registered ticket and closes it when
// the ticket is completed
type Notifier struct {
	gql   *githubv4.Client
	owner string
	repo  string

	mu     sync.Mutex
	repoID githubv4.ID
}

var _ interfaces.TicketNotifier = &Notifier{}

// New creates a notifier using GitHub App authentication.
// privateKey can be a PEM string or a file path to a PEM file.
func New(appID, installationID int64, privateKey, owner, repo string) (*Notifier, error) {
	var key []byte

	// #nosec G304 -- path comes from CLI flag, not user input
	if data, err := os.ReadFile(privateKey); err == nil {
		key = data
	} else {
		key = []byte(privateKey)
	}

	tr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport")
	}

	return newNotifier(githubv4.NewClient(&http.Client{Transport: tr}), owner, repo)
}

func newNotifier(gql *githubv4.Client, owner, repo string) (*Notifier, error) {
	if owner == "" || repo == "" {
		return nil, goerr.New("GitHub repository owner and name are required",
			goerr.V("owner", owner), goerr.V("repo", repo))
	}
	return &Notifier{gql: gql, owner: owner, repo: repo}, nil
}

// NotifyRegistered creates an issue for each ticket in order
func (n *Notifier) NotifyRegistered(ctx context.Context, tickets []*model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	repoID, err := n.repositoryID(ctx)
	if err != nil {
		return err
	}

	for _, ticket := range tickets {
		var m createIssueMutation
		input := githubv4.CreateIssueInput{
			RepositoryID: repoID,
			Title:        githubv4.String(issueTitle(ticket)),
			Body:         githubv4.NewString(githubv4.String(issueBody(ticket))),
		}
		if err := n.gql.Mutate(ctx, &m, input, nil); err != nil {
			return goerr.Wrap(err, "failed to create issue",
				goerr.V("ticket_id", ticket.ID), goerr.V("owner", n.owner), goerr.V("repo", n.repo))
		}

		logging.From(ctx).Info("GitHub issue created",
			"ticket_id", ticket.ID,
			"number", int(m.CreateIssue.Issue.Number),
			"url", string(m.CreateIssue.Issue.URL),
		)
	}
	return nil
}

// NotifyCompleted comments on and closes the issue of the ticket. A ticket
// without an open issue is skipped.
func (n *Notifier) NotifyCompleted(ctx context.Context, ticket *model.Ticket) error {
	issue, err := n.findOpenIssue(ctx, ticket)
	if err != nil {
		return err
	}
	if issue == nil {
		logging.From(ctx).Warn("no open GitHub issue for ticket", "ticket_id", ticket.ID)
		return nil
	}

	body := "Marked as completed."
	if ticket.CompletedAt != nil {
		body = fmt.Sprintf("Marked as completed at %s.", ticket.CompletedAt.Format("2006-01-02 15:04:05 MST"))
	}

	var comment addCommentMutation
	if err := n.gql.Mutate(ctx, &comment, githubv4.AddCommentInput{
		SubjectID: issue.ID,
		Body:      githubv4.String(body),
	}, nil); err != nil {
		return goerr.Wrap(err, "failed to comment on issue",
			goerr.V("ticket_id", ticket.ID), goerr.V("number", int(issue.Number)))
	}

	var closed closeIssueMutation
	if err := n.gql.Mutate(ctx, &closed, githubv4.CloseIssueInput{IssueID: issue.ID}, nil); err != nil {
		return goerr.Wrap(err, "failed to close issue",
			goerr.V("ticket_id", ticket.ID), goerr.V("number", int(issue.Number)))
	}

	logging.From(ctx).Info("GitHub issue closed", "ticket_id", ticket.ID, "number", int(issue.Number))
	return nil
}

func (n *Notifier) repositoryID(ctx context.Context) (githubv4.ID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.repoID != nil {
		return n.repoID, nil
	}

	var q repositoryQuery
	variables := map[string]interface{}{
		"owner": githubv4.String(n.owner),
		"name":  githubv4.String(n.repo),
	}
	if err := n.gql.Query(ctx, &q, variables); err != nil {
		return nil, goerr.Wrap(err, "failed to get repository",
			goerr.V("owner", n.owner), goerr.V("repo", n.repo))
	}

	n.repoID = q.Repository.ID
	return n.repoID, nil
}

func (n *Notifier) findOpenIssue(ctx context.Context, ticket *model.Ticket) (*issueFragment, error) {
	query := fmt.Sprintf(`repo:%s/%s is:issue is:open in:title "%s"`, n.owner, n.repo, ticket.ID)

	var q searchIssueQuery
	variables := map[string]interface{}{
		"query": githubv4.String(query),
		"first": githubv4.Int(5),
	}
	if err := n.gql.Query(ctx, &q, variables); err != nil {
		return nil, goerr.Wrap(err, "failed to search issues",
			goerr.V("ticket_id", ticket.ID), goerr.V("owner", n.owner), goerr.V("repo", n.repo))
	}

	// search is fuzzy; require the exact id prefix
	prefix := issueTitlePrefix(ticket)
	for _, edge := range q.Search.Edges {
		issue := edge.Node.Issue
		if strings.HasPrefix(string(issue.Title), prefix) {
			return &issue, nil
		}
	}
	return nil, nil
}

func issueTitlePrefix(ticket *model.Ticket) string {
	return fmt.Sprintf("[%s]", ticket.ID)
}

func issueTitle(ticket *model.Ticket) string {
	return issueTitlePrefix(ticket) + " " + ticket.Title
}

func issueBody(ticket *model.Ticket) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "**Company:** %s (`%s`)\n", ticket.CompanyName, ticket.CompanyID)
	fmt.Fprintf(&sb, "**Priority:** %s\n", ticket.Priority)
	fmt.Fprintf(&sb, "**Estimate:** %g hours\n\n", ticket.EstimatedHours)

	sb.WriteString("## Description\n\n")
	sb.WriteString(ticket.Description + "\n")

	if len(ticket.AcceptanceCriteria) > 0 {
		sb.WriteString("\n## Acceptance criteria\n\n")
		for _, c := range ticket.AcceptanceCriteria {
			sb.WriteString("- [ ] " + c + "\n")
		}
	}

	if ticket.TechnicalNotes != "" {
		sb.WriteString("\n## Technical notes\n\n")
		sb.WriteString(ticket.TechnicalNotes + "\n")
	}

	if len(ticket.Dependencies) > 0 {
		sb.WriteString("\n## Dependencies\n\n")
		for _, d := range ticket.Dependencies {
			sb.WriteString("- " + d + "\n")
		}
	}

	return sb.String()
}
