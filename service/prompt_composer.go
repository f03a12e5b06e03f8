package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"visaletter-backend/assets"
	"visaletter-backend/config"
	"visaletter-backend/models"
)

const (
	toneEmpathetic = "empathetic but professional"
	toneFormal     = "formal and confident"

	placeholderVisaType  = "[VISA TYPE]"
	placeholderDest      = "[DESTINATION]"
	placeholderApplicant = "[APPLICANT NAME]"

	noneMarker = "(none)"
)

// scenarioGuide binds a scenario to its mini-template lookup key and hint
type scenarioGuide struct {
	miniKey string
	hint    string
}

var scenarioGuides = map[models.Scenario]scenarioGuide{
	models.ScenarioReapplication: {
		miniKey: "refusal",
		hint:    "Acknowledge the previous refusal directly and show what has changed since.",
	},
	models.ScenarioSponsored: {
		miniKey: "sponsor",
		hint:    "Introduce the sponsor and their relationship to the applicant, and show their capacity to pay.",
	},
	models.ScenarioSelfEmployed: {
		miniKey: "self_employed",
		hint:    "Present the business as an ongoing commitment that requires the applicant's return.",
	},
	models.ScenarioTouristFirstTime: {
		miniKey: "tourist",
		hint:    "Reassure the officer that this first trip abroad is planned and time-bound.",
	},
	models.ScenarioBusiness: {
		miniKey: "business",
		hint:    "Tie the trip to the stated business engagements and the return to work afterwards.",
	},
	models.ScenarioMedical: {
		miniKey: "medical",
		hint:    "Describe the treatment plan with empathy and point to the medical documents provided.",
	},
	models.ScenarioStudy: {
		miniKey: "study",
		hint:    "Frame the course as a defined programme with a clear plan after completion.",
	},
	models.ScenarioStrongTies: {
		miniKey: "ties",
		hint:    "Emphasize the ties that anchor the applicant to their home country.",
	},
	models.ScenarioWeaknesses: {
		miniKey: "weakness",
		hint:    "Address each disclosed weakness honestly and pair it with a mitigating fact.",
	},
}

const outputInstruction = "Write one cohesive cover letter in plain text using only the facts above. " +
	"Do not invent names, dates, amounts, employers or documents; if a detail is missing, leave it out. " +
	"Return only the letter."

// ComposeInput is everything one prompt is built from
type ComposeInput struct {
	Facts     []string
	Flags     models.ScenarioFlags
	Bundle    *assets.Bundle
	Rationale []string
}

// Composer assembles the three prompt blocks under per-section budgets
type Composer struct {
	budgets    config.PromptConfig
	homeSymbol string
	markerRE   *regexp.Regexp
}

// NewComposer builds a composer. The currency markers are matched literally;
// alphabetic codes only as whole words.
func NewComposer(budgets config.PromptConfig, currency config.CurrencyConfig) *Composer {
	return &Composer{
		budgets:    budgets,
		homeSymbol: currency.HomeSymbol,
		markerRE:   markerPattern(currency.Markers),
	}
}

func markerPattern(markers []string) *regexp.Regexp {
	sorted := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			sorted = append(sorted, m)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	// Longest first so "US$" wins over "$"
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	alternatives := make([]string, len(sorted))
	for i, m := range sorted {
		quoted := regexp.QuoteMeta(m)
		if isAlphabetic(m) {
			quoted = `\b` + quoted + `\b`
		}
		alternatives[i] = quoted
	}
	return regexp.MustCompile(strings.Join(alternatives, "|"))
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Compose returns the system, reference and user blocks, in that order
func (c *Composer) Compose(in ComposeInput) models.Prompt {
	factText := strings.Join(in.Facts, "\n")

	return models.Prompt{Blocks: []models.PromptBlock{
		{Role: models.RoleSystem, Text: c.systemBlock(in.Flags, factText)},
		{Role: models.RoleReference, Text: c.referenceBlock(in, factText)},
		{Role: models.RoleUser, Text: userBlock(in.Facts)},
	}}
}

// Tone reports the tone directive for a set of flags
func Tone(flags models.ScenarioFlags) string {
	if flags.HasWeaknesses || flags.Medical {
		return toneEmpathetic
	}
	return toneFormal
}

// CurrencyMarker returns the first recognized foreign currency marker in text
func (c *Composer) CurrencyMarker(text string) (string, bool) {
	if c.markerRE == nil {
		return "", false
	}
	m := c.markerRE.FindString(text)
	return m, m != ""
}

func (c *Composer) systemBlock(flags models.ScenarioFlags, factText string) string {
	var b strings.Builder
	b.WriteString("You are a consular assistant who drafts visa application cover letters for applicants.\n")
	fmt.Fprintf(&b, "Tone: %s.\n", Tone(flags))
	b.WriteString("Use only the facts supplied by the applicant. Never invent names, dates, amounts, employers, documents or travel history.\n")
	if marker, ok := c.CurrencyMarker(factText); ok {
		fmt.Fprintf(&b, "Currency: the facts use %s. Keep every amount exactly as written with its original symbol or code. Never convert between currencies.", marker)
	} else {
		fmt.Fprintf(&b, "Currency: state amounts in %s unless a fact already carries a symbol. Never convert between currencies.", c.homeSymbol)
	}
	return b.String()
}

func (c *Composer) referenceBlock(in ComposeInput, factText string) string {
	var b strings.Builder
	section := func(title, body string) {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("=== " + title + " ===\n")
		b.WriteString(body)
	}

	section("STRUCTURE OUTLINE", structureOutline(factText))

	if bundle := in.Bundle; bundle != nil {
		section("MASTER RULES", assets.ClipWithMarker(bundle.MasterRules, c.budgets.RulesChars))
		section("STRUCTURE GUIDE", assets.ClipWithMarker(bundle.StructureGuide, c.budgets.StructureGuideChars))
		section("QUALITY CHECKLIST", assets.ClipWithMarker(bundle.QualityChecklist, c.budgets.ChecklistChars))
		section("MASTER TEMPLATE (adapt, never copy verbatim)", assets.ClipWithMarker(bundle.MasterTemplate, c.budgets.TemplateChars))
		if bundle.StyleDigest != "" {
			section("STYLE DIGEST (tone reference only, never copy)", bundle.StyleDigest)
		}
		for _, scenario := range in.Flags.Active() {
			guide, ok := scenarioGuides[scenario]
			if !ok {
				continue
			}
			if doc, ok := bundle.MiniTemplate(guide.miniKey); ok {
				section("SCENARIO GUIDANCE: "+string(scenario), assets.ClipWithMarker(strings.TrimSpace(doc.Content), c.budgets.MiniChars))
			}
		}
	}

	section("APPROVAL RATIONALE", bulletList(in.Rationale))
	section("SCENARIO HINTS", bulletList(ScenarioHints(in.Flags)))

	return b.String()
}

// ScenarioHints returns one fixed imperative per active scenario
func ScenarioHints(flags models.ScenarioFlags) []string {
	active := flags.Active()
	hints := make([]string, 0, len(active))
	for _, scenario := range active {
		if guide, ok := scenarioGuides[scenario]; ok {
			hints = append(hints, guide.hint)
		}
	}
	return hints
}

func structureOutline(factText string) string {
	visaType := extractFact(factText, models.LabelFor(models.FieldVisaType), placeholderVisaType)
	destination := extractFact(factText, models.LabelFor(models.FieldDestination), placeholderDest)
	applicant := extractFact(factText, models.LabelFor(models.FieldName), placeholderApplicant)

	lines := []string{
		"1. Sender details: applicant name, home address, then the letter date.",
		"2. Recipient: embassy or consulate name and address.",
		fmt.Sprintf("3. Subject: Application for a %s Visa to %s - %s", visaType, destination, applicant),
		fmt.Sprintf("4. Opening: state the purpose of the %s visa and the intended travel dates to %s.", visaType, destination),
		"5. Employment and financial standing, citing the stated figures.",
		"6. Ties to the home country and assurance of return.",
		"7. Travel history and visa compliance.",
		"8. Closing: enclosed documents, thanks and signature.",
	}
	return strings.Join(lines, "\n")
}

// extractFact reads the value of a labelled line, or returns placeholder
func extractFact(factText, label, placeholder string) string {
	re := regexp.MustCompile(`(?im)^` + regexp.QuoteMeta(label) + `:\s*(.+)$`)
	if m := re.FindStringSubmatch(factText); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			return v
		}
	}
	return placeholder
}

func userBlock(facts []string) string {
	var b strings.Builder
	b.WriteString("APPLICANT FACTS\n")
	for _, line := range facts {
		b.WriteString("- " + line + "\n")
	}
	b.WriteString("\n" + outputInstruction)
	return b.String()
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return noneMarker
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
