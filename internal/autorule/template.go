package autorule

import (
	"fmt"
	"strings"

	"github.com/dhafnck/taskforge/internal/domain"
)

// renderSimple builds the compact default artifact: task id/title/
// description/priority/labels and a one-line assignee role header.
func (g *Generator) renderSimple(task *domain.Task) string {
	assignee := primaryAssignee(task)

	var b strings.Builder
	b.WriteString("### DO NOT EDIT - THIS FILE IS AUTOMATICALLY GENERATED ###\n")
	fmt.Fprintf(&b, "# Last generated: %s\n\n", g.now().UTC().Format(time3339))
	b.WriteString("### TASK CONTEXT ###\n")
	fmt.Fprintf(&b, "- **ID**: %s\n", valueOr(string(task.ID), "N/A"))
	fmt.Fprintf(&b, "- **Title**: %s\n", valueOr(task.Title, "N/A"))
	fmt.Fprintf(&b, "- **Description**: %s\n", valueOr(task.Description, "N/A"))
	fmt.Fprintf(&b, "- **Priority**: %s\n", strings.ToUpper(valueOr(string(task.Priority), "N/A")))
	fmt.Fprintf(&b, "- **Labels**: %s\n\n", strings.Join(task.Labels, ", "))
	fmt.Fprintf(&b, "### ROLE: %s ###\n", strings.ToUpper(assignee))
	b.WriteString("- This is a simplified role; use `force_full_generation` for a complete role pack rendering.\n\n")
	b.WriteString("### OPERATING RULES ###\n")
	b.WriteString("1. Focus on completing the task as described.\n")
	b.WriteString("2. Use mocks and stubs for external dependencies when appropriate.\n")
	b.WriteString("3. Write clear and concise code.\n\n")
	b.WriteString("### --- END OF GENERATED RULES --- ###\n")
	return b.String()
}

const time3339 = "2006-01-02T15:04:05Z07:00"

// renderFull builds the structured artifact combining the task, its role
// pack, and the project snapshot, matching the section layout of the
// original agent-library template (role/persona, core rules, context
// instructions, tools guidance, phase guidance, project context).
func (g *Generator) renderFull(task *domain.Task, role domain.AgentRole, snapshot *domain.ProjectSnapshot) string {
	phase := domain.PhaseForStatus(task.Status)

	var b strings.Builder
	fmt.Fprintf(&b, "---\ndescription: Dynamic AI Agent Rules for %s\nglobs: **/*\nalwaysApply: true\n---\n\n", role.Name)
	fmt.Fprintf(&b, "# %s - %s Phase\n\n", role.Name, titleCase(string(phase)))

	b.WriteString("## Current Task Context\n")
	fmt.Fprintf(&b, "**Task:** %s\n", task.Title)
	fmt.Fprintf(&b, "**Description:** %s\n", valueOr(task.Description, "N/A"))
	fmt.Fprintf(&b, "**Phase:** %s\n", strings.ToUpper(string(phase)))
	fmt.Fprintf(&b, "**Task ID:** %s\n\n", task.ID)

	b.WriteString("## Active Roles\n")
	fmt.Fprintf(&b, "**Primary Role (Current Phase):** %s\n", role.Name)
	fmt.Fprintf(&b, "**All Assignees:** %s\n\n", strings.Join(task.Assignees, ", "))

	b.WriteString("## Role & Persona\n")
	fmt.Fprintf(&b, "You are a **%s**.\n", role.Persona)
	fmt.Fprintf(&b, "**Primary Focus:** %s\n\n", role.PrimaryFocus)

	b.WriteString("## Core Operating Rules\n")
	writeList(&b, role.Rules, "Follow general best practices for this role.")
	b.WriteString("\n")

	b.WriteString("## Context-Specific Instructions\n")
	writeList(&b, role.ContextInstructions, "No additional context instructions.")
	b.WriteString("\n")

	b.WriteString("## Tools & Output Guidance\n")
	writeList(&b, role.ToolsGuidance, "Use the tools appropriate to this task.")
	b.WriteString("\n")

	b.WriteString("## Expected Output Format\n")
	fmt.Fprintf(&b, "%s\n\n", valueOr(role.OutputFormat, "Structured output with clear documentation"))

	b.WriteString("## Phase-Specific Guidance\n")
	if snapshot != nil {
		writeList(&b, snapshot.Guidance[phase], genericPhaseGuidance(phase))
	} else {
		fmt.Fprintf(&b, "- %s\n", genericPhaseGuidance(phase))
	}
	b.WriteString("\n")

	b.WriteString("## Project Context\n")
	if snapshot != nil {
		fmt.Fprintf(&b, "**Root:** %s\n", snapshot.RootPath)
		fmt.Fprintf(&b, "**Languages:** %s\n", strings.Join(snapshot.Languages, ", "))
		fmt.Fprintf(&b, "**Frameworks:** %s\n", strings.Join(snapshot.Frameworks, ", "))
		fmt.Fprintf(&b, "**Manifest files:** %s\n", strings.Join(snapshot.ManifestFiles, ", "))
	} else {
		b.WriteString("No project snapshot available.\n")
	}
	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "*Generated: %s*\n", g.now().UTC().Format(time3339))
	return b.String()
}

func writeList(b *strings.Builder, items []string, fallback string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "- %s\n", fallback)
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func genericPhaseGuidance(phase domain.TaskPhase) string {
	switch phase {
	case domain.PhasePlanning:
		return "Clarify scope and break the task into actionable subtasks before writing code."
	case domain.PhaseCoding:
		return "Implement the requirements incrementally, keeping changes scoped to the task."
	case domain.PhaseTesting:
		return "Write and run tests covering the new behavior and its edge cases."
	case domain.PhaseReview:
		return "Review the diff for correctness, clarity, and adherence to project conventions."
	case domain.PhaseCompleted:
		return "Confirm the task's acceptance criteria are met before closing it out."
	default:
		return "Proceed using the role's standard operating rules."
	}
}

func primaryAssignee(task *domain.Task) string {
	if task == nil || len(task.Assignees) == 0 {
		return "default_agent"
	}
	return strings.TrimPrefix(task.Assignees[0], "@")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}


