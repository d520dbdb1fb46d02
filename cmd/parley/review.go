package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/parleykit/parley/pkg/negotiate"
)

// consoleReviewer drives the accept/refine/inspect/restart loop on the
// terminal. It remembers the last inspected draft so inspect can show what
// changed between rounds.
type consoleReviewer struct {
	out  io.Writer
	prev string
}

func (r *consoleReviewer) Review(_ context.Context, st *negotiate.State) (negotiate.Decision, error) {
	draft, err := draftJSON(st)
	if err != nil {
		return negotiate.Decision{}, err
	}

	fmt.Fprintln(r.out, headStyle.Render(fmt.Sprintf("Draft %d: %s", st.Iteration, draftTitle(st))))

	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("How does this draft look?").
			Options(
				huh.NewOption("Accept it", "accept"),
				huh.NewOption("Request changes", "refine"),
				huh.NewOption("Inspect the draft", "inspect"),
				huh.NewOption("Start over", "restart"),
			).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		return negotiate.Decision{}, err
	}

	switch choice {
	case "accept":
		return negotiate.Decision{Choice: negotiate.Accept}, nil
	case "inspect":
		r.showDraft(draft)
		return negotiate.Decision{Choice: negotiate.Inspect}, nil
	case "refine":
		var feedback string
		if err := huh.NewForm(huh.NewGroup(
			huh.NewText().Title("What should change?").Value(&feedback).Validate(requireValue),
		)).Run(); err != nil {
			return negotiate.Decision{}, err
		}
		return negotiate.Decision{Choice: negotiate.Refine, Feedback: feedback}, nil
	case "restart":
		var desc string
		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("New description (empty keeps the current one)").Value(&desc),
		)).Run(); err != nil {
			return negotiate.Decision{}, err
		}
		return negotiate.Decision{Choice: negotiate.Restart, Description: desc}, nil
	}

	return negotiate.Decision{}, fmt.Errorf("unknown review choice %q", choice)
}

// showDraft prints the draft as rendered markdown plus a unified diff
// against the previously inspected draft.
func (r *consoleReviewer) showDraft(draft string) {
	fmt.Fprintln(r.out, renderMarkdown("```json\n"+draft+"\n```"))

	if diff := draftDiff(r.prev, draft); diff != "" {
		fmt.Fprintln(r.out, dimStyle.Render("Changes since the last inspected draft:"))
		fmt.Fprint(r.out, diff)
	}

	r.prev = draft
}

func draftJSON(st *negotiate.State) (string, error) {
	if st.Draft == nil {
		return "", fmt.Errorf("no draft to review")
	}

	data, err := json.MarshalIndent(st.Draft.Map(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func draftTitle(st *negotiate.State) string {
	if st.Draft == nil {
		return "(no draft)"
	}

	fields := 0
	if props, ok := st.Draft.Definition["properties"].(map[string]any); ok {
		fields = len(props)
	}

	return fmt.Sprintf("%s (%d field(s))", st.Draft.Name, fields)
}

// draftDiff returns a unified diff between two drafts. Empty when there is
// no previous draft or nothing changed.
func draftDiff(prev, current string) string {
	if prev == "" || prev == current {
		return ""
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(prev),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  3,
	}

	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}

	return out
}
