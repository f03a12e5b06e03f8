package models

import "strings"

// PromptRole tags a prompt block
type PromptRole string

const (
	RoleSystem    PromptRole = "system"
	RoleReference PromptRole = "reference"
	RoleUser      PromptRole = "user"
)

// PromptBlock is one role-tagged instruction block
type PromptBlock struct {
	Role PromptRole `json:"role"`
	Text string     `json:"text"`
}

// Prompt is the ordered block sequence sent to the generation model.
// It embeds per-request facts and is never reused across requests.
type Prompt struct {
	Blocks []PromptBlock `json:"blocks"`
}

// Block returns the text of the first block with the given role
func (p Prompt) Block(role PromptRole) string {
	for _, b := range p.Blocks {
		if b.Role == role {
			return b.Text
		}
	}
	return ""
}

// Len returns the total character count across blocks
func (p Prompt) Len() int {
	n := 0
	for _, b := range p.Blocks {
		n += len(b.Text)
	}
	return n
}

// String joins the blocks for logging and previews
func (p Prompt) String() string {
	var builder strings.Builder
	for i, b := range p.Blocks {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString("[" + strings.ToUpper(string(b.Role)) + "]\n")
		builder.WriteString(b.Text)
	}
	return builder.String()
}
