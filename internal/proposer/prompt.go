package proposer

import (
	"fmt"
	"strings"

	"github.com/zulandar/roundhouse/internal/models"
)

const systemPrompt = `You are an expert at matching work tickets to developers. ` +
	`Weigh skill match, job title relevance, remaining capacity, experience, and ` +
	`even distribution across the batch. Use the exact numbers from the developer ` +
	`data in your reasoning. Respond with valid JSON only.`

// renderPrompt builds the user message for one ticket.
func renderPrompt(ticket models.Ticket, snap Snapshot) string {
	var b strings.Builder

	b.WriteString("Assign this ticket to a developer. Distribute workload evenly across all developers.\n\n")
	b.WriteString("Developers (with assignments made earlier in this batch):\n")
	b.WriteString(renderDeveloperInfo(snap))

	b.WriteString("\nTicket:\n")
	fmt.Fprintf(&b, "- ID: %d\n", ticket.ID)
	fmt.Fprintf(&b, "- Title: %s\n", ticket.Title)
	fmt.Fprintf(&b, "- Description: %s\n", ticket.Description)
	fmt.Fprintf(&b, "- Story Points: %d\n", ticket.StoryPoints)
	fmt.Fprintf(&b, "- Required Skill: %s\n", ticket.RequiredSkill)
	if ticket.Priority != "" {
		fmt.Fprintf(&b, "- Priority: %s\n", ticket.Priority)
	}

	b.WriteString("\nRules: distribute evenly, match skills, respect capacity, ")
	b.WriteString("consider job title relevance, prefer less-assigned developers.\n\n")
	b.WriteString(`Respond with JSON: {"assigned_to": "DeveloperName", "reason": "why this developer, citing their availability, workload, capacity, skills, and how the choice keeps the batch balanced"}`)

	return b.String()
}

// renderDeveloperInfo formats the roster snapshot for the prompt.
func renderDeveloperInfo(snap Snapshot) string {
	var b strings.Builder
	for _, d := range snap.Developers {
		remaining := d.Capacity - float64(d.BatchPoints)
		fmt.Fprintf(&b, "- %s (%s): availability %.0f%%, workload %d pts, capacity %.2f, assigned in batch %d tickets (%d pts), remaining %.2f, skills: %s, experience %d years\n",
			d.Name, d.Title, d.Availability*100, d.Workload, d.Capacity,
			d.BatchTickets, d.BatchPoints, remaining, d.Skills, d.ExperienceYears)
	}
	return b.String()
}
