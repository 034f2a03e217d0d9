package document

import (
	"encoding/json"
	"regexp"
	"strings"
)

// MentionResolver renders a mention target (a page id or a user id,
// depending on the kind named in the mention's insert text) as display
// text.
// Resolvers default to "@id" for people and "[[id]]" for pages when the
// caller doesn't supply one.
type MentionResolver func(kind, id string) string

// DefaultMentionResolver renders "@id" for person mentions and "[[id]]"
// for page mentions, falling back to "@id" for any other kind.
func DefaultMentionResolver(kind, id string) string {
	if kind == "page" {
		return "[[" + id + "]]"
	}
	return "@" + id
}

var mentionPattern = regexp.MustCompile(`^\$\{mention:([a-zA-Z]+):(.+)\}$`)

type insertOp struct {
	Insert     string         `json:"insert"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// PlainText walks the document depth-first from its page, rendering
// every block's external text as plain text, joined by newlines.
// Mentions, insert ops whose whole text is "${mention:<kind>:<id>}"
// (attributes are not consulted), are resolved via resolver; a nil resolver uses DefaultMentionResolver. Subpage
// blocks (ty == "sub_document") emit the resolver's page rendering of
// their own id, or a resolver-provided title when present as block
// data's "title" key.
func (d *Document) PlainText(resolver MentionResolver) string {
	if resolver == nil {
		resolver = DefaultMentionResolver
	}
	var sb strings.Builder
	d.walkPlainText(d.PageID(), resolver, &sb)
	return strings.TrimSuffix(sb.String(), "\n")
}

func (d *Document) walkPlainText(blockID string, resolver MentionResolver, sb *strings.Builder) {
	block, ok := d.GetBlock(blockID)
	if !ok {
		return
	}
	if block.Type == "sub_document" {
		if title, ok := block.Data["title"].(string); ok && title != "" {
			sb.WriteString(title)
		} else {
			sb.WriteString(resolver("page", blockID))
		}
		sb.WriteString("\n")
	} else if block.ExternalID != "" {
		if delta, ok := d.GetTextDelta(block.ExternalID); ok {
			sb.WriteString(deltaToPlainText(delta, resolver))
			sb.WriteString("\n")
		}
	}
	for _, child := range d.GetBlockChildren(blockID) {
		d.walkPlainText(child.ID, resolver, sb)
	}
}

func deltaToPlainText(delta string, resolver MentionResolver) string {
	var ops []insertOp
	if err := json.Unmarshal([]byte(delta), &ops); err != nil {
		return ""
	}
	var sb strings.Builder
	for _, op := range ops {
		if m := mentionPattern.FindStringSubmatch(op.Insert); m != nil {
			sb.WriteString(resolver(m[1], m[2]))
			continue
		}
		sb.WriteString(op.Insert)
	}
	return sb.String()
}
