package domain

// Label is the closed set of recognized mortgage document types. Adding a
// label requires adding a keyword signature and, when embeddings are enabled,
// a prototype text set.
type Label string

const (
	LabelW2            Label = "W2"
	LabelPaystub       Label = "Paystub"
	LabelBankStatement Label = "BankStatement"
	LabelID            Label = "ID"
	LabelTWN           Label = "TWN"
	LabelURLA          Label = "URLA"
	LabelCreditReport  Label = "CreditReport"
)

// Labels returns the label set in definition order. The order is part of the
// classifier contract: score ties resolve to the earliest label.
func Labels() []Label {
	return []Label{
		LabelW2,
		LabelPaystub,
		LabelBankStatement,
		LabelID,
		LabelTWN,
		LabelURLA,
		LabelCreditReport,
	}
}

func (l Label) Valid() bool {
	switch l {
	case LabelW2, LabelPaystub, LabelBankStatement, LabelID, LabelTWN, LabelURLA, LabelCreditReport:
		return true
	default:
		return false
	}
}

// Signature binds a label to its lowercase keyword phrases. Pure data.
type Signature struct {
	Label    Label
	Keywords []string
}

// DefaultSignatures returns the built-in keyword table, ordered like
// Labels(). Keywords must stay lowercase: the heuristic scorer matches them
// as substrings of lowercased text.
func DefaultSignatures() []Signature {
	return []Signature{
		{Label: LabelW2, Keywords: []string{"form w-2", "wage and tax statement", "w-2"}},
		{Label: LabelPaystub, Keywords: []string{"year-to-date", "gross pay", "net pay", "pay period", "paystub", "earnings"}},
		{Label: LabelBankStatement, Keywords: []string{"statement period", "ending balance", "available balance", "account number", "bank statement"}},
		{Label: LabelID, Keywords: []string{"driver license", "date of birth", "identification", "id number", "id card"}},
		{Label: LabelTWN, Keywords: []string{"the work number", "work number", "theworknumber", "employment verification"}},
		{Label: LabelURLA, Keywords: []string{"1003", "urla", "uniform residential loan application", "mortgage application", "form 1003"}},
		{Label: LabelCreditReport, Keywords: []string{"credit score", "equifax", "transunion", "experian", "credit report"}},
	}
}

// DefaultPrototypes returns short representative texts per label used to
// build the embedding prototypes.
func DefaultPrototypes() map[Label][]string {
	return map[Label][]string{
		LabelW2:            {"Form W-2 Wage and Tax Statement", "Employee's social security wages", "Wage and Tax Statement Form W-2"},
		LabelPaystub:       {"Year-to-date earnings", "Net pay", "Gross pay", "Pay period"},
		LabelBankStatement: {"Statement period", "Ending balance", "Available balance", "Account number"},
		LabelID:            {"Driver license", "Date of birth", "identification number", "ID card"},
		LabelTWN:           {"The Work Number", "employment verification", "employer id The Work Number"},
		LabelURLA:          {"Uniform Residential Loan Application", "Form 1003", "URLA mortgage application"},
		LabelCreditReport:  {"credit report", "Equifax", "TransUnion", "Experian"},
	}
}
