/*
Package employment models employee contract terms over time.

PURPOSE:
  Contract terms change: raises, type switches, hour reductions. Each change
  closes the old SettingsPeriod and opens a new one, so every calculation can
  ask "what were the terms on this date?" and get the answer that was true
  then, not the answer that is true today.

KEY CONCEPTS (types.go):
  - Type: closed enumeration of employment categories
  - Capabilities: per-type rule table consulted by every engine, replacing
    scattered string comparisons against category subsets

CAPABILITY TABLE:
  Rather than each aggregator re-deriving "freelancers get no sick pay" or
  "directors are exempt from working-time limits", the rules live in one
  table keyed by Type. An unknown type gets the contract defaults.

SEE ALSO:
  - period.go: the SettingsPeriod entity and repository interface
  - resolver.go: period lookup, weighted aggregation, expected hours
*/
package employment

// Type is the closed enumeration of employment categories.
type Type string

const (
	TypeDirector  Type = "director"
	TypeContract  Type = "contract"
	TypeFreelance Type = "freelance"
	TypeIntern    Type = "intern"
	TypeStudent   Type = "student"
)

// Valid reports whether t is one of the known categories.
func (t Type) Valid() bool {
	switch t {
	case TypeDirector, TypeContract, TypeFreelance, TypeIntern, TypeStudent:
		return true
	}
	return false
}

// =============================================================================
// CAPABILITY TABLE
// =============================================================================

// Capabilities states which labor-law rules apply to an employment category.
type Capabilities struct {
	// CountsForCompliance: ArbZG working-time limits apply.
	CountsForCompliance bool

	// CountsForVacation: accrues prorated vacation entitlement.
	CountsForVacation bool

	// CountsForSickPay: sick days credit hours toward the balance.
	CountsForSickPay bool

	// CountsForHolidayCredit: public holidays credit hours toward the balance.
	CountsForHolidayCredit bool
}

var capabilityTable = map[Type]Capabilities{
	// Directors are leitende Angestellte: outside ArbZG scope (§18 Abs. 1
	// Nr. 1 ArbZG) but otherwise regular employees.
	TypeDirector: {CountsForCompliance: false, CountsForVacation: true, CountsForSickPay: true, CountsForHolidayCredit: true},

	TypeContract: {CountsForCompliance: true, CountsForVacation: true, CountsForSickPay: true, CountsForHolidayCredit: true},

	// Freelancers are not employees: no ArbZG, no BUrlG, no EFZG.
	TypeFreelance: {CountsForCompliance: false, CountsForVacation: false, CountsForSickPay: false, CountsForHolidayCredit: false},

	// Interns track time under ArbZG but are paid per agreement, without
	// sick-pay or holiday crediting.
	TypeIntern: {CountsForCompliance: true, CountsForVacation: true, CountsForSickPay: false, CountsForHolidayCredit: false},

	TypeStudent: {CountsForCompliance: true, CountsForVacation: true, CountsForSickPay: true, CountsForHolidayCredit: true},
}

// Capabilities returns the rule table entry for t. Unknown types get the
// contract defaults.
func (t Type) Capabilities() Capabilities {
	if c, ok := capabilityTable[t]; ok {
		return c
	}
	return capabilityTable[TypeContract]
}

// ComplianceExemption returns the legal reason a category is outside the
// working-time rules, and whether it is exempt at all. Callers must check
// this BEFORE running a compliance check; the engine itself does not.
func (t Type) ComplianceExemption() (reason string, exempt bool) {
	switch t {
	case TypeDirector:
		return "leitende Angestellte sind vom Arbeitszeitgesetz ausgenommen (§18 Abs. 1 Nr. 1 ArbZG)", true
	case TypeFreelance:
		return "freie Mitarbeiter sind keine Arbeitnehmer im Sinne des Arbeitszeitgesetzes (§2 ArbZG)", true
	}
	return "", false
}
