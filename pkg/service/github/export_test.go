package github

import (
	"net/http"

	"github.com/shurcooL/githubv4"
)

var (
	IssueTitle = issueTitle
	IssueBody  = issueBody
)

// NewWithEndpoint creates a notifier talking to a test GraphQL endpoint
func NewWithEndpoint(endpoint string, owner, repo string) (*Notifier, error) {
	return newNotifier(githubv4.NewEnterpriseClient(endpoint, http.DefaultClient), owner, repo)
}
