package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"visaletter-backend/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxRationalePoints caps the approval rationale
const MaxRationalePoints = 8

// An amount is an optional leading symbol or currency code, then a plain
// number with optional thousands separators and decimals. Signs, trailing
// words, multipliers ("1.2m") and ranges do not parse.
var amountPattern = regexp.MustCompile(`^\s*([^\d\s.,+-]{1,4})?(\s*)(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?\s*$`)

// Amount is a parsed currency-like figure
type Amount struct {
	Value  float64
	Prefix string
	// Sep is the spacing the applicant put between prefix and digits
	Sep string
}

// ParseAmount parses s as a single currency amount. Anything else, including
// free text around a number, reports false so the value counts as absent.
func ParseAmount(s string) (Amount, bool) {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return Amount{}, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[3], ",", "")+m[4], 64)
	if err != nil {
		return Amount{}, false
	}
	amount := Amount{Value: v, Prefix: m[1]}
	if amount.Prefix != "" && m[2] != "" {
		amount.Sep = " "
	}
	return amount, true
}

// Format renders v with this amount's prefix and grouped digits
func (a Amount) Format(v float64) string {
	printer := message.NewPrinter(language.English)
	var digits string
	if v == math.Trunc(v) {
		digits = printer.Sprintf("%d", int64(v))
	} else {
		digits = printer.Sprintf("%.2f", v)
	}
	return a.Prefix + a.Sep + digits
}

// sameCurrency reports whether two amounts can be subtracted. An amount
// without a prefix is taken to be in the other amount's currency.
func sameCurrency(a, b Amount) bool {
	return a.Prefix == "" || b.Prefix == "" || strings.EqualFold(a.Prefix, b.Prefix)
}

// BuildRationale derives the ordered approval cues for a payload.
// A negative funds margin is never stated; the list is cut at MaxRationalePoints.
func BuildRationale(p models.Payload, flags models.ScenarioFlags) []string {
	var points []string
	add := func(s string) {
		points = append(points, s)
	}

	balanceText := p.Value(models.FieldBankBalance)
	balance, balanceOK := ParseAmount(balanceText)
	cost, costOK := ParseAmount(p.Value(models.FieldTripCost))
	switch {
	case balanceOK && costOK && cost.Value > 0 && sameCurrency(balance, cost):
		if margin := balance.Value - cost.Value; margin >= 0 {
			add("Available funds of " + balanceText + " cover the estimated trip cost of " +
				p.Value(models.FieldTripCost) + " with a margin of " + balance.Format(margin) + " remaining.")
		}
	case balanceOK:
		add("A current bank balance of " + balanceText + " shows the capacity to fund the trip.")
	}

	if income, ok := p.Get(models.FieldIncome); ok {
		line := "A steady monthly income of " + income
		if employer, ok := p.Get(models.FieldEmployer); ok {
			line += " from " + employer
		}
		if duration, ok := p.Get(models.FieldEmploymentDuration); ok {
			line += " over " + duration
		}
		add(line + " demonstrates financial stability.")
	}

	if !p.IsDefaulted(models.FieldFunding) {
		funding := strings.ToLower(p.Value(models.FieldFunding))
		switch {
		case strings.Contains(funding, "employer"):
			add("The employer is funding the trip, which confirms an ongoing position to return to.")
		case strings.Contains(funding, "family"):
			add("Family support" + sponsorDetail(p) + " covers the trip and reflects close ties at home.")
		case strings.Contains(funding, "sponsor"):
			add("The sponsor" + sponsorDetail(p) + " has committed to covering the trip costs.")
		}
	}

	accommodation, hasAccommodation := p.Get(models.FieldAccommodation)
	invitation, hasInvitation := p.Get(models.FieldInvitation)
	switch {
	case hasAccommodation && hasInvitation:
		add("Arrangements are confirmed: accommodation (" + accommodation + ") and an invitation (" + invitation + ").")
	case hasAccommodation:
		add("Accommodation is arranged: " + accommodation + ".")
	case hasInvitation:
		add("The visit is supported by an invitation: " + invitation + ".")
	}

	var ties []string
	for _, field := range []models.Field{models.FieldPropertyDetails, models.FieldBusinessCommitments, models.FieldFamilyDependents} {
		if v, ok := p.Get(field); ok {
			ties = append(ties, v)
		}
	}
	if len(ties) > 0 {
		add("Strong ties to the home country: " + strings.Join(ties, ", ") + ".")
	}

	history, hasHistory := p.Get(models.FieldTravelHistory)
	compliance, hasCompliance := p.Get(models.FieldComplianceHistory)
	switch {
	case hasHistory && hasCompliance:
		add("Prior travel (" + history + ") with a clean compliance record (" + compliance + ").")
	case hasHistory:
		add("Prior travel shows a record of returning home: " + history + ".")
	case hasCompliance:
		add("Visa compliance history: " + compliance + ".")
	}

	if flags.IsReapplication() {
		if v, ok := p.Get(models.FieldNewEvidence); ok {
			add("New evidence since the previous refusal: " + v + ".")
		}
		if v, ok := p.Get(models.FieldLargeTransactions); ok {
			add("Large transactions are explained: " + v + ".")
		}
		if v, ok := p.Get(models.FieldBankStatementNotes); ok {
			add("Bank statement entries are clarified: " + v + ".")
		}
		if v, ok := p.Get(models.FieldSponsorDocuments); ok {
			add("Sponsor documents now close the earlier gap: " + v + ".")
		}
	}

	if flags.Medical {
		add("The trip is for necessary medical care, supported by the treatment arrangements described.")
	}
	if flags.Study {
		add("The study programme is a defined, time-bound commitment that leads back home.")
	}

	if len(points) > MaxRationalePoints {
		points = points[:MaxRationalePoints]
	}
	return points
}

func sponsorDetail(p models.Payload) string {
	name, hasName := p.Get(models.FieldSponsorName)
	relationship, hasRelationship := p.Get(models.FieldSponsorRelationship)
	switch {
	case hasName && hasRelationship:
		return " from " + name + " (" + relationship + ")"
	case hasName:
		return " from " + name
	case hasRelationship:
		return " from the applicant's " + relationship
	}
	return ""
}
