package roster

import (
	"context"
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/roundhouse/internal/models"
)

// fakeIssueLister returns canned pages of issues.
type fakeIssueLister struct {
	pages [][]*github.Issue
	calls int
}

func (f *fakeIssueLister) ListByRepo(_ context.Context, _, _ string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	page := f.calls
	f.calls++
	resp := &github.Response{}
	if page+1 < len(f.pages) {
		resp.NextPage = page + 2
	}
	return f.pages[page], resp, nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func label(name string) *github.Label { return &github.Label{Name: strPtr(name)} }

func TestTicketFromIssue_Labels(t *testing.T) {
	issue := &github.Issue{
		Number: intPtr(42),
		Title:  strPtr("Fix importer"),
		Body:   strPtr("Importer drops rows"),
		Labels: []*github.Label{label("points/5"), label("skill/Go"), label("High")},
	}

	tk := ticketFromIssue(issue)
	if tk.ID != 42 {
		t.Errorf("id = %d, want 42", tk.ID)
	}
	if tk.StoryPoints != 5 {
		t.Errorf("points = %d, want 5", tk.StoryPoints)
	}
	if tk.RequiredSkill != "Go" {
		t.Errorf("skill = %q, want Go", tk.RequiredSkill)
	}
	if tk.Priority != "High" {
		t.Errorf("priority = %q, want High", tk.Priority)
	}
}

func TestTicketFromIssue_NoLabels(t *testing.T) {
	issue := &github.Issue{Number: intPtr(7), Title: strPtr("Untriaged")}
	tk := ticketFromIssue(issue)
	if tk.StoryPoints != 0 || tk.RequiredSkill != "" || tk.Priority != "" {
		t.Errorf("ticket = %+v, want zero-valued labels", tk)
	}
}

func TestImportIssues_PaginatesAndSkipsPRs(t *testing.T) {
	db := openTestDB(t)

	pr := &github.Issue{
		Number:           intPtr(3),
		Title:            strPtr("A pull request"),
		PullRequestLinks: &github.PullRequestLinks{URL: strPtr("https://example.com/pr/3")},
	}
	lister := &fakeIssueLister{pages: [][]*github.Issue{
		{
			{Number: intPtr(1), Title: strPtr("First"), Labels: []*github.Label{label("points/2")}},
			pr,
		},
		{
			{Number: intPtr(2), Title: strPtr("Second")},
		},
	}}

	n, err := importIssues(context.Background(), db, lister, "acme", "app")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Errorf("imported = %d, want 2 (pull request skipped)", n)
	}

	var count int64
	db.Model(&models.Ticket{}).Count(&count)
	if count != 2 {
		t.Errorf("ticket rows = %d, want 2", count)
	}

	tk, _ := TicketByID(db, 1)
	if tk == nil || tk.StoryPoints != 2 {
		t.Errorf("ticket 1 = %+v, want 2 points", tk)
	}
}

func TestImportIssues_UpsertOnReimport(t *testing.T) {
	db := openTestDB(t)

	first := &fakeIssueLister{pages: [][]*github.Issue{{
		{Number: intPtr(1), Title: strPtr("Old title")},
	}}}
	if _, err := importIssues(context.Background(), db, first, "acme", "app"); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second := &fakeIssueLister{pages: [][]*github.Issue{{
		{Number: intPtr(1), Title: strPtr("New title")},
	}}}
	if _, err := importIssues(context.Background(), db, second, "acme", "app"); err != nil {
		t.Fatalf("second import: %v", err)
	}

	var count int64
	db.Model(&models.Ticket{}).Count(&count)
	if count != 1 {
		t.Errorf("ticket rows = %d, want 1 after re-import", count)
	}
	tk, _ := TicketByID(db, 1)
	if tk.Title != "New title" {
		t.Errorf("title = %q, want updated", tk.Title)
	}
}
