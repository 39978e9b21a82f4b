package internal

import (
	"fmt"
	"strings"
)

// renderTree draws a tree's live epochs, one line each: label, coordinate,
// state. Children print in attachment order.
func renderTree(t *Tree) string {
	var sb strings.Builder
	writeEpoch(&sb, t.root, "", "")
	return sb.String()
}

func writeEpoch(sb *strings.Builder, e *Epoch, lead, childLead string) {
	sb.WriteString(fmt.Sprintf("%s%s %s %s\n", lead, e.label, e.coord, e.state))

	for i, child := range e.children {
		if i == len(e.children)-1 {
			writeEpoch(sb, child, childLead+"└─ ", childLead+"   ")
		} else {
			writeEpoch(sb, child, childLead+"├─ ", childLead+"│  ")
		}
	}
}

// formatFrames prints an engine call stack, outermost frame first.
func formatFrames(frames []Frame) string {
	if len(frames) == 0 {
		return "(engine idle)"
	}

	var sb strings.Builder
	for i, f := range frames {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if f.Epoch == nil {
			sb.WriteString(f.Kind.String())
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %s %s", f.Kind, f.Epoch.label, f.Epoch.coord))
	}
	return sb.String()
}

// formatFault renders a fault for the log: what failed, where, and what the
// engine was doing at the time.
func formatFault(f *FaultError) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("epoch %q at %s (%s) faulted: %v", f.Epoch, f.Coord, f.Id.Short(), f.Cause))
	sb.WriteString("\nengine stack:\n")
	sb.WriteString(formatFrames(f.Frames))
	return sb.String()
}
