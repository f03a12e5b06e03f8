package service

import (
	"regexp"
	"strings"

	"visaletter-backend/models"
)

const (
	labelApplicationType     = "Application Type"
	labelSupportingDocuments = "Supporting Documents"
)

// documentFields feed the synthesized "Supporting Documents" line, in union order
var documentFields = []models.Field{
	models.FieldSupportingDocuments,
	models.FieldAdditionalDocuments,
	models.FieldSponsorDocuments,
}

var documentSeparator = regexp.MustCompile(`[,;]`)

var reapplicationPattern = regexp.MustCompile(`(?i)re-?appl`)

// contradictsReapplication reports whether a stated application type conflicts
// with a detected reapplication; the derived line replaces it.
func contradictsReapplication(stated string, flags models.ScenarioFlags) bool {
	return flags.IsReapplication() && !reapplicationPattern.MatchString(stated)
}

// BuildFactSheet renders the payload as ordered "Label: value" lines.
//
// Optional fields appear only when present and values are inserted verbatim.
// Defaulted values are omitted except in the branding group, where the
// company default is the letterhead. Two lines are synthesized at the end of
// their groups: an Application Type line for a detected reapplication the
// applicant did not state (or stated otherwise), and a deduplicated
// Supporting Documents summary.
func BuildFactSheet(p models.Payload, flags models.ScenarioFlags) []string {
	lines := make([]string, 0, p.Len()+2)

	for i, spec := range models.PayloadSchema {
		if !spec.Summarized {
			if v, ok := p.Get(spec.Field); ok && !(p.IsDefaulted(spec.Field) && spec.Group != models.GroupBranding) &&
				!(spec.Field == models.FieldApplicationType && contradictsReapplication(v, flags)) {
				lines = append(lines, spec.Label+": "+v)
			}
		}

		lastInGroup := i == len(models.PayloadSchema)-1 || models.PayloadSchema[i+1].Group != spec.Group
		if lastInGroup {
			lines = append(lines, synthesizedLines(spec.Group, p, flags)...)
		}
	}

	return lines
}

func synthesizedLines(group models.FieldGroup, p models.Payload, flags models.ScenarioFlags) []string {
	switch group {
	case models.GroupHistory:
		stated, ok := p.Get(models.FieldApplicationType)
		if flags.IsReapplication() && (!ok || contradictsReapplication(stated, flags)) {
			return []string{labelApplicationType + ": Reapplication"}
		}
	case models.GroupAdditional:
		if docs := DocumentUnion(p); len(docs) > 0 {
			return []string{labelSupportingDocuments + ": " + strings.Join(docs, ", ")}
		}
	}
	return nil
}

// DocumentUnion merges the document list fields into one ordered set.
// Items are split on commas and semicolons and compared case-insensitively;
// the first spelling seen wins.
func DocumentUnion(p models.Payload) []string {
	seen := make(map[string]bool)
	var docs []string
	for _, field := range documentFields {
		for _, item := range documentSeparator.Split(p.Value(field), -1) {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			key := strings.ToLower(item)
			if seen[key] {
				continue
			}
			seen[key] = true
			docs = append(docs, item)
		}
	}
	return docs
}
