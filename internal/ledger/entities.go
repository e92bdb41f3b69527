package ledger

import (
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/govalues/money"
)

// CategoryType separates expense categories from income categories.
type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
)

// PrivateClassification records why an expense is (or is not) private-paid.
type PrivateClassification string

const (
	// PrivateNone means the expense was paid from business funds.
	PrivateNone PrivateClassification = "none"
	// PrivateAccountRule means the account label matched a configured private account.
	PrivateAccountRule PrivateClassification = "account_rule"
	// PrivateCategoryRule means the expense is booked on the usage-contribution category.
	PrivateCategoryRule PrivateClassification = "category_rule"
	// PrivateManual is a caller decision; reconciliation never touches it.
	PrivateManual PrivateClassification = "manual"
)

// Valid reports whether c is one of the known classification reasons.
func (c PrivateClassification) Valid() bool {
	switch c {
	case PrivateNone, PrivateAccountRule, PrivateCategoryRule, PrivateManual:
		return true
	}
	return false
}

// TransferType distinguishes private deposits into and withdrawals out of the business.
type TransferType string

const (
	TransferDeposit    TransferType = "deposit"
	TransferWithdrawal TransferType = "withdrawal"
)

// AuditAction tags an audit log row.
type AuditAction string

const (
	AuditInsert  AuditAction = "INSERT"
	AuditUpdate  AuditAction = "UPDATE"
	AuditDelete  AuditAction = "DELETE"
	AuditMigrate AuditAction = "MIGRATE"
)

// Table names used for persisted records and audit attribution.
const (
	TableExpenses  = "expenses"
	TableIncome    = "income"
	TableTransfers = "private_transfers"
)

// Category is a named bucket for expenses or income, optionally tagged with the
// line number of the annual profit statement it reports on.
type Category struct {
    ID         int64
    UUID       uuid.UUID
    Name       string
    ReportLine *int
    Type       CategoryType
}

// Label renders the category name with its report line, e.g. "Arbeitsmittel (52)".
func (c Category) Label() string {
    if c.ReportLine == nil { return c.Name }
    return c.Name + " (" + strconv.Itoa(*c.ReportLine) + ")"
}

// Expense is a single business outflow. Amount is signed (negative for payments).
type Expense struct {
    ID            int64
    UUID          uuid.UUID
    PaymentDate   string
    InvoiceDate   string
    Vendor        string
    Amount        money.Amount
    CategoryID    *int64
    // CategoryName and CategoryLine are read-only joins filled by the store.
    CategoryName  string
    CategoryLine  *int
    Account       string
    LedgerAccount string
    ReceiptName   string
    ForeignAmount string
    Notes         string
    ReverseCharge bool
    VATInput      *money.Amount
    VATOutput     *money.Amount
    PrivatePaid   bool
    PrivateClass  PrivateClassification
    Fingerprint   string
}

// Date returns the payment date if set, else the invoice date.
func (e Expense) Date() string { return PreferredDate(e.PaymentDate, e.InvoiceDate) }

// Income is a single business inflow.
type Income struct {
    ID            int64
    UUID          uuid.UUID
    PaymentDate   string
    InvoiceDate   string
    Source        string
    Amount        money.Amount
    CategoryID    *int64
    CategoryName  string
    CategoryLine  *int
    LedgerAccount string
    ReceiptName   string
    ForeignAmount string
    Notes         string
    VATOutput     *money.Amount
    Fingerprint   string
}

func (i Income) Date() string { return PreferredDate(i.PaymentDate, i.InvoiceDate) }

// PrivateTransfer is a deposit or withdrawal between private and business funds.
type PrivateTransfer struct {
    ID               int64
    UUID             uuid.UUID
    Date             string
    Type             TransferType
    Amount           money.Amount
    Description      string
    Notes            string
    RelatedExpenseID *int64
    Fingerprint      string
}

// AuditEntry is one immutable row of the mutation history. States are JSON
// documents copied at write time.
type AuditEntry struct {
    ID         int64
    Timestamp  time.Time
    Table      string
    RecordID   int64
    RecordUUID string
    Action     AuditAction
    OldState   []byte
    NewState   []byte
    User       string
}

// LedgerAccount maps a short configured key to a booking category.
type LedgerAccount struct {
    Key           string `yaml:"key" json:"key"`
    Name          string `yaml:"name" json:"name"`
    Category      string `yaml:"category" json:"category"`
    AccountNumber string `yaml:"account_number" json:"account_number,omitempty"`
}

// ListFilter narrows expense and income listings.
type ListFilter struct {
    Year       int
    Month      int
    CategoryID *int64
}

// TransferFilter narrows private transfer listings.
type TransferFilter struct {
    Type             TransferType
    Year             int
    RelatedExpenseID *int64
}

// PreferredDate picks the payment date when present, else the invoice date.
func PreferredDate(payment, invoice string) string {
    if payment != "" { return payment }
    return invoice
}
