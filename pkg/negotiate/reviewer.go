package negotiate

import "context"

// Choice is a reviewer's verdict on a draft.
type Choice int

const (
	// Accept ends the negotiation with the current draft.
	Accept Choice = iota
	// Refine sends the draft back for another iteration with feedback.
	Refine
	// Inspect repeats the review without changing state; rendering the
	// draft is the reviewer's concern.
	Inspect
	// Restart discards all progress and begins a fresh negotiation.
	Restart
)

// String returns the lowercase name of the choice.
func (c Choice) String() string {
	switch c {
	case Accept:
		return "accept"
	case Refine:
		return "refine"
	case Inspect:
		return "inspect"
	case Restart:
		return "restart"
	}
	return "unknown"
}

// Decision carries a reviewer's choice plus its follow-up text.
type Decision struct {
	Choice Choice
	// Feedback describes the requested changes for Refine.
	Feedback string
	// Description replaces the negotiated description for Restart; empty
	// keeps the original one.
	Description string
}

// Reviewer inspects the current negotiation state and decides how to
// proceed. Implementations drive the interactive loop; AutoReviewer stands
// in when no human is attached.
type Reviewer interface {
	Review(ctx context.Context, st *State) (Decision, error)
}

// AutoReviewer accepts the first structurally valid draft.
type AutoReviewer struct{}

// Review always accepts.
func (AutoReviewer) Review(context.Context, *State) (Decision, error) {
	return Decision{Choice: Accept}, nil
}
