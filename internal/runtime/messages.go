package runtime

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aretw0/lendflow/internal/amount"
	"github.com/aretw0/lendflow/pkg/domain"
)

const (
	msgGreeting      = "Hello! I can assist you with a Personal Loan. Type 'loan' to begin."
	msgSessionEnded  = "Session ended. Type 'start' to restart."
	msgRestarted     = "Restarted! Type 'loan' to begin."
	msgSessionClosed = "Session closed. Type 'start' to restart."
	msgAskName       = "Great, I can help with a Personal Loan. Before we begin, may I have your full name?"
	msgMasterHelp    = "I can assist with Personal Loans. Please type 'loan' to begin the loan application flow."
	msgNameTooShort  = "Please enter your full name."
	msgBadAmount     = "Enter a valid loan amount."
	msgBadIncome     = "Enter a valid monthly income."
	msgMissingData   = "Required data missing."
	msgChecking      = "Checking eligibility..."
	msgLowerAmount   = "Please enter a lower loan amount."
	msgProceed       = "Would you like to proceed? (yes/change)"
	msgEnterNew      = "Okay, enter the new amount."
	msgRechecking    = "Noted. Rechecking eligibility..."
	msgNegotiateHelp = "Say 'yes' to proceed or 'change' to edit."
	msgAskPAN        = "Please provide your PAN number (ABCDE1234F)."
	msgPANVerified   = "PAN verified successfully."
	msgPANInvalid    = "Invalid PAN. Use format ABCDE1234F."
	msgGenerating    = "Generating your sanction letter..."
	msgFinalReject   = "We cannot approve this amount. Try lowering it."
	msgNoApproval    = "No approved amount found."
	msgLetterReady   = "Your sanction letter is ready. Do you need anything else? (yes/no)"
	msgHelpPrompt    = "Sure, what else can I help you with?"
	msgHelpMore      = "Anything else? Type 'done' when you are finished."
	msgGoodbye       = "Alright! Thank you for using the Loan Assistant."
	msgYesOrNo       = "Please reply 'yes' or 'no'."
)

// Greeting is the first message queued for a new session.
func Greeting() string {
	return msgGreeting
}

// fieldPrompts are the deterministic fallbacks used when no phrased prompt is available.
var fieldPrompts = map[domain.Field]string{
	domain.FieldName:          "May I have your full name?",
	domain.FieldLoanAmount:    "What loan amount are you looking for?",
	domain.FieldMonthlyIncome: "What is your monthly income (numbers only)?",
}

// FieldPrompt returns the fixed prompt asking for field.
func FieldPrompt(field domain.Field) string {
	return fieldPrompts[field]
}

var printer = message.NewPrinter(language.English)

// rupees renders a whole amount with digit grouping, e.g. 200000 -> "200,000".
func rupees(v int64) string {
	return printer.Sprintf("%d", v)
}

// rupeesDecimal renders a two-place amount with digit grouping, e.g. "16,666.67".
func rupeesDecimal(d decimal.Decimal) string {
	return amount.Format(d, 2)
}
