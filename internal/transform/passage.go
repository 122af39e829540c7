// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"fmt"
	"strings"

	"github.com/pdiddy/kb-migrate/pkg/types"
)

const (
	// DefaultCategory labels threads that carry no category.
	DefaultCategory = "uncategorized"

	labelCustomer = "Customer"
	labelAgent    = "Agent"
)

var (
	outerRule = strings.Repeat("=", 60)
	innerRule = strings.Repeat("-", 60)
)

// category returns the thread category or DefaultCategory.
func category(raw types.RawQA) string {
	if c := strings.TrimSpace(raw.Category); c != "" {
		return c
	}
	return DefaultCategory
}

// roleLabel maps a reply owner to its transcript label.
func roleLabel(r types.Reply) string {
	if r.IsCustomer() {
		return labelCustomer
	}
	return labelAgent
}

// RenderPassage renders a thread as one conversational passage: title,
// description (only when non-empty), category, then the numbered
// transcript. Replies that clean to nothing are left out but keep their
// number, so the numbering always matches the reply position.
func RenderPassage(raw types.RawQA) string {
	var sb strings.Builder

	sb.WriteString(outerRule + "\n")
	fmt.Fprintf(&sb, "Title: %s\n\n", Clean(raw.Title))

	if desc := Clean(raw.Description); desc != "" {
		fmt.Fprintf(&sb, "Description: %s\n\n", desc)
	}

	fmt.Fprintf(&sb, "Category: %s\n\n", category(raw))

	sb.WriteString("Conversation:\n")
	sb.WriteString(innerRule + "\n")

	for i, reply := range raw.Replies {
		content := Clean(reply.Content)
		if content == "" {
			continue
		}
		fmt.Fprintf(&sb, "%d. [%s] %s\n\n", i+1, roleLabel(reply), content)
	}

	sb.WriteString(outerRule)
	return sb.String()
}
