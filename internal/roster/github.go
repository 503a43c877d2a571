package roster

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/roundhouse/internal/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// issueLister abstracts the GitHub issues API for tests.
type issueLister interface {
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
}

// NewGitHubClient returns an authenticated GitHub client. An empty token
// yields an unauthenticated client, which is enough for public repos.
func NewGitHubClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// ImportGitHubIssues upserts open issues of owner/name as tickets. The issue
// number becomes the ticket id. Story points are read from a "points/N"
// label, the required skill from a "skill/X" label, and priority from a
// High/Medium/Low label; absent labels leave the field at its zero value.
// Pull requests are skipped. Returns the number of tickets imported.
func ImportGitHubIssues(ctx context.Context, db *gorm.DB, client *github.Client, repo string) (int, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return 0, fmt.Errorf("roster: github repo must be owner/name, got %q", repo)
	}
	return importIssues(ctx, db, client.Issues, owner, name)
}

func importIssues(ctx context.Context, db *gorm.DB, issues issueLister, owner, name string) (int, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	count := 0
	for {
		page, resp, err := issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return count, fmt.Errorf("roster: list issues for %s/%s: %w", owner, name, err)
		}

		for _, issue := range page {
			if issue.IsPullRequest() {
				continue
			}
			ticket := ticketFromIssue(issue)
			result := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "description", "story_points", "required_skill", "priority"}),
			}).Create(&ticket)
			if result.Error != nil {
				return count, fmt.Errorf("roster: upsert issue #%d: %w", issue.GetNumber(), result.Error)
			}
			count++
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return count, nil
}

func ticketFromIssue(issue *github.Issue) models.Ticket {
	t := models.Ticket{
		ID:          uint(issue.GetNumber()),
		Title:       issue.GetTitle(),
		Description: issue.GetBody(),
	}
	for _, label := range issue.Labels {
		name := label.GetName()
		switch {
		case strings.HasPrefix(name, "points/"):
			if n, err := strconv.Atoi(strings.TrimPrefix(name, "points/")); err == nil && n >= 0 {
				t.StoryPoints = n
			}
		case strings.HasPrefix(name, "skill/"):
			t.RequiredSkill = strings.TrimPrefix(name, "skill/")
		case strings.EqualFold(name, "high"):
			t.Priority = "High"
		case strings.EqualFold(name, "medium"):
			t.Priority = "Medium"
		case strings.EqualFold(name, "low"):
			t.Priority = "Low"
		}
	}
	return t
}
