package commandlang

// This file holds the conditional chain logic for [if], [elif] and [else]
// blocks.

// chainState tracks an if/elif/else run. The zero value means no branch in
// the current chain is waiting for a match.
type chainState struct {
	armed bool // a preceding branch was false, so elif/else may still match
}

// reset ends the chain; called for every non-conditional segment.
func (c *chainState) reset() {
	c.armed = false
}

// handleConditional decides whether seg's body renders and returns its
// rendered output. The chain state is updated in place.
func (r *Renderer) handleConditional(inv Invocation, seg Segment, chain *chainState, depth int) (string, error) {
	switch seg.Type {
	case SegmentIf:
		return r.testBranch(inv, seg, chain, depth)
	case SegmentElif:
		if !chain.armed {
			return "", nil
		}
		return r.testBranch(inv, seg, chain, depth)
	case SegmentElse:
		if !chain.armed {
			return "", nil
		}
		chain.armed = false
		return r.render(inv, seg.Body, depth+1)
	default:
		return "", syntaxError(ErrInvalidKind, "segment %s is not a conditional", seg.Type)
	}
}

// testBranch evaluates an if/elif condition. A truthy condition renders the
// body and closes the chain, a false one arms it for the next branch.
func (r *Renderer) testBranch(inv Invocation, seg Segment, chain *chainState, depth int) (string, error) {
	cond, err := evaluateExpression(inv, r.resolver, seg.Expression)
	if err != nil {
		return "", err
	}
	if !cond.Truthy() {
		chain.armed = true
		return "", nil
	}
	chain.armed = false
	return r.render(inv, seg.Body, depth+1)
}
