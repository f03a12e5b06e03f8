package service

import (
	"strings"
	"testing"

	"visaletter-backend/models"
)

func TestBuildFactSheetRequiredOnly(t *testing.T) {
	t.Parallel()

	payload, err := newTestNormalizer(t).Normalize(baseIntake())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	flags, _ := newTestClassifier(t).Classify(payload)

	got := BuildFactSheet(payload, flags)
	want := []string{
		"Applicant Name: Ada Obi",
		"Age: 29",
		"Nationality: Nigerian",
		"Destination: UK",
		"Visa Type: Tourist",
		"Purpose of Travel: Holiday",
		"Monthly Income: ₦450,000",
		"Company: Independent Applicant",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("got=%q\nwant=%q", got, want)
	}
}

func TestBuildFactSheetOmissionLaw(t *testing.T) {
	t.Parallel()

	for _, spec := range models.PayloadSchema {
		if spec.Summarized || spec.Field == models.FieldApplicationType {
			continue
		}

		without := payloadOf(map[string]string{"name": "Ada"})
		with := payloadOf(map[string]string{"name": "Ada", string(spec.Field): "value"})

		prefix := spec.Label + ": "
		if spec.Field != models.FieldName && countPrefix(BuildFactSheet(without, models.ScenarioFlags{}), prefix) != 0 {
			t.Fatalf("%s: line present while field absent", spec.Field)
		}
		if n := countPrefix(BuildFactSheet(with, models.ScenarioFlags{}), prefix); n != 1 {
			t.Fatalf("%s: expected exactly one line, got %d", spec.Field, n)
		}
	}
}

func countPrefix(lines []string, prefix string) int {
	n := 0
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

func TestBuildFactSheetSynthesizedLines(t *testing.T) {
	t.Parallel()

	p := payloadOf(map[string]string{
		"name":                "Ada",
		"visaRefusals":        "Refused in 2022",
		"supportingDocuments": "Passport; Bank statement",
		"additionalDocuments": "bank statement, Payslips",
		"sponsorDocuments":    "Sponsor letter",
		"embassyName":         "British High Commission",
	})
	flags := models.ScenarioFlags{ApplicationType: models.ApplicationReapplication, PriorRefusals: true}

	lines := BuildFactSheet(p, flags)
	joined := strings.Join(lines, "\n")

	if !strings.Contains(joined, "Previous Visa Refusals: Refused in 2022\nApplication Type: Reapplication") {
		t.Fatalf("application type line should close the history group:\n%s", joined)
	}
	if !strings.Contains(joined, "Supporting Documents: Passport, Bank statement, Payslips, Sponsor letter\nEmbassy/Consulate") {
		t.Fatalf("documents union missing or misplaced:\n%s", joined)
	}
	if strings.Contains(joined, "Sponsor Documents:") || strings.Contains(joined, "Additional Documents:") {
		t.Fatalf("summarized fields must not render on their own:\n%s", joined)
	}
}

func TestBuildFactSheetKeepsExplicitApplicationType(t *testing.T) {
	t.Parallel()

	p := payloadOf(map[string]string{"applicationType": "Reapplication after refusal"})
	flags := models.ScenarioFlags{ApplicationType: models.ApplicationReapplication}

	lines := BuildFactSheet(p, flags)
	if n := countPrefix(lines, "Application Type: "); n != 1 {
		t.Fatalf("expected one application type line, got %d: %v", n, lines)
	}
}

func TestBuildFactSheetDefaultedFunding(t *testing.T) {
	t.Parallel()

	defaulted := models.NewPayload(
		map[models.Field]string{models.FieldFunding: "Self-funded", models.FieldCompanyName: "Independent Applicant"},
		map[models.Field]bool{models.FieldFunding: true, models.FieldCompanyName: true},
	)
	lines := BuildFactSheet(defaulted, models.ScenarioFlags{})
	if countPrefix(lines, "Funding Source: ") != 0 {
		t.Fatalf("defaulted funding must not be stated: %v", lines)
	}
	if countPrefix(lines, "Company: ") != 1 {
		t.Fatalf("company default is emitted: %v", lines)
	}

	stated := payloadOf(map[string]string{"funding": "Self-funded"})
	if countPrefix(BuildFactSheet(stated, models.ScenarioFlags{}), "Funding Source: ") != 1 {
		t.Fatalf("stated funding must be emitted")
	}
}

func TestBuildFactSheetReplacesContradictingApplicationType(t *testing.T) {
	t.Parallel()

	p := payloadOf(map[string]string{
		"applicationType": "First time",
		"visaRefusals":    "Refused in 2023 for weak ties",
	})
	flags, err := newTestClassifier(t).Classify(p)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !flags.IsReapplication() {
		t.Fatalf("refusal should make this a reapplication: %+v", flags)
	}

	lines := BuildFactSheet(p, flags)
	joined := strings.Join(lines, "\n")
	if strings.Contains(joined, "Application Type: First time") {
		t.Fatalf("contradicting stated type must not be rendered:\n%s", joined)
	}
	if n := countPrefix(lines, "Application Type: "); n != 1 || !strings.Contains(joined, "Application Type: Reapplication") {
		t.Fatalf("expected one derived application type line:\n%s", joined)
	}
}
