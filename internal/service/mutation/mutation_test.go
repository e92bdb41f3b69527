package mutation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/govalues/money"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tinoosan/euer/internal/audit"
	"github.com/tinoosan/euer/internal/dictionary"
	"github.com/tinoosan/euer/internal/errs"
	"github.com/tinoosan/euer/internal/ledger"
	"github.com/tinoosan/euer/internal/metrics"
	"github.com/tinoosan/euer/internal/storage/sqlite"
	"github.com/tinoosan/euer/internal/tax"
)

func newService(t *testing.T, settings Settings) (*Service, *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.SeedCategories(ctx, []dictionary.CategoryDef{
		{Name: "Office Supplies", Type: ledger.CategoryTypeExpense},
		{Name: "Consulting", Line: 14, Type: ledger.CategoryTypeIncome},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	svc, err := New(store, settings)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func amt(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := ledger.ParseAmount(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return a
}

func ptr[T any](v T) *T { return &v }

func trail(t *testing.T, svc *Service, table string, id int64) []ledger.AuditEntry {
	t.Helper()
	entries, err := svc.AuditTrail(context.Background(), table, id)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	return entries
}

func TestNewRejectsUnknownTaxMode(t *testing.T) {
	_, err := New(nil, Settings{TaxMode: "flat"})
	if !errs.Is(err, errs.CodeInvalidTaxMode) {
		t.Fatalf("expected invalid_tax_mode, got %v", err)
	}
}

func TestEndToEndExpense(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness, PrivateAccounts: []string{"privat"}})
	ctx := context.Background()

	e, out, err := svc.CreateExpense(ctx, ExpenseInput{
		PaymentDate: "2026-01-15",
		Vendor:      "Acme",
		Amount:      amt(t, "-39.99"),
		Category:    "office supplies",
	}, RaiseOnDuplicate)
	if err != nil || !out.Created {
		t.Fatalf("create: %v %+v", err, out)
	}
	if e.VATInput == nil || !e.VATInput.IsZero() || e.VATOutput == nil || !e.VATOutput.IsZero() {
		t.Fatalf("vat: %v %v", e.VATInput, e.VATOutput)
	}
	if e.PrivatePaid || e.PrivateClass != ledger.PrivateNone {
		t.Fatalf("classification: %v %s", e.PrivatePaid, e.PrivateClass)
	}
	if e.CategoryName != "Office Supplies" {
		t.Fatalf("category: %q", e.CategoryName)
	}

	updated, err := svc.UpdateExpense(ctx, e.ID, ExpensePatch{Account: ptr("privat")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.PrivatePaid || updated.PrivateClass != ledger.PrivateAccountRule {
		t.Fatalf("after update: %v %s", updated.PrivatePaid, updated.PrivateClass)
	}
	entries := trail(t, svc, ledger.TableExpenses, e.ID)
	if len(entries) != 2 || entries[0].Action != ledger.AuditInsert || entries[1].Action != ledger.AuditUpdate {
		t.Fatalf("audit: %+v", entries)
	}
	before, _ := audit.Decode(entries[1].OldState)
	after, _ := audit.Decode(entries[1].NewState)
	diff := before.Diff(after)
	want := map[string]bool{"account": true, "is_private_paid": true, "private_classification": true}
	if len(diff) != len(want) {
		t.Fatalf("diff: %v", diff)
	}
	for _, k := range diff {
		if !want[k] {
			t.Fatalf("unexpected changed field %q in %v", k, diff)
		}
	}
}

func TestCreateExpenseDuplicatePolicies(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	ctx := context.Background()
	in := ExpenseInput{PaymentDate: "2026-02-01", Vendor: "Acme", Amount: amt(t, "-10"), ReceiptName: "r.pdf"}
	first, _, err := svc.CreateExpense(ctx, in, RaiseOnDuplicate)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	in.Amount = amt(t, "-10.00")
	_, out, err := svc.CreateExpense(ctx, in, RaiseOnDuplicate)
	if !errs.Is(err, errs.CodeDuplicate) || !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if id, _ := errs.Detail(err, "existing_id"); id != first.ID || out.ExistingID != first.ID {
		t.Fatalf("existing id: %v %d", id, out.ExistingID)
	}
	_, out, err = svc.CreateExpense(ctx, in, SkipDuplicates)
	if err != nil || out.Created || out.ExistingID != first.ID {
		t.Fatalf("skip: %v %+v", err, out)
	}
	list, _ := svc.Expenses(ctx, 0, 0, "")
	if len(list) != 1 {
		t.Fatalf("stored %d rows", len(list))
	}
	if n := len(trail(t, svc, ledger.TableExpenses, first.ID)); n != 1 {
		t.Fatalf("audit rows: %d", n)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.Standard})
	ctx := context.Background()
	cases := []struct {
		name string
		in   ExpenseInput
		code errs.Code
	}{
		{"no dates", ExpenseInput{Vendor: "A", Amount: amt(t, "-1")}, errs.CodeMissingDates},
		{"bad date", ExpenseInput{PaymentDate: "15.01.2026", Vendor: "A", Amount: amt(t, "-1")}, errs.CodeInvalidDate},
		{"no vendor", ExpenseInput{PaymentDate: "2026-01-01", Amount: amt(t, "-1")}, errs.CodeMissingFields},
		{"unknown category", ExpenseInput{PaymentDate: "2026-01-01", Vendor: "A", Amount: amt(t, "-1"), Category: "Nope"}, errs.CodeCategoryNotFound},
		{"income category", ExpenseInput{PaymentDate: "2026-01-01", Vendor: "A", Amount: amt(t, "-1"), Category: "Consulting"}, errs.CodeCategoryNotFound},
		{"unknown ledger account", ExpenseInput{PaymentDate: "2026-01-01", Vendor: "A", Amount: amt(t, "-1"), LedgerAccount: "nope"}, errs.CodeLedgerAccountNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.CreateExpense(ctx, tc.in, RaiseOnDuplicate)
			if !errs.Is(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
	_, _, err := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-01-01", Vendor: "A", Amount: amt(t, "-1"), Category: "Nope"}, RaiseOnDuplicate)
	valid, ok := errs.Detail(err, "valid")
	if !ok || len(valid.([]string)) == 0 {
		t.Fatalf("category error should list valid names: %v", err)
	}
}

func TestLedgerAccountResolution(t *testing.T) {
	svc, _ := newService(t, Settings{
		TaxMode: tax.SmallBusiness,
		LedgerAccounts: []ledger.LedgerAccount{
			{Key: "office", Name: "Office", Category: "Office Supplies"},
			{Key: "consulting", Name: "Consulting", Category: "Consulting"},
		},
	})
	ctx := context.Background()
	e, _, err := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-01-02", Vendor: "A", Amount: amt(t, "-5"), Category: "Telekommunikation", LedgerAccount: "office"}, RaiseOnDuplicate)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.CategoryName != "Office Supplies" || e.LedgerAccount != "office" {
		t.Fatalf("ledger account should win: %+v", e)
	}
	_, _, err = svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-01-03", Vendor: "A", Amount: amt(t, "-5"), LedgerAccount: "consulting"}, RaiseOnDuplicate)
	if !errs.Is(err, errs.CodeLedgerAccountTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestExpenseTaxByRegime(t *testing.T) {
	ctx := context.Background()
	std, _ := newService(t, Settings{TaxMode: tax.Standard})
	e, _, err := std.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-03-01", Vendor: "Cloud Inc", Amount: amt(t, "-100.00"), ReverseCharge: true}, RaiseOnDuplicate)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ledger.Minor(*e.VATInput) != 1900 || ledger.Minor(*e.VATOutput) != 1900 {
		t.Fatalf("rc vat: %s %s", ledger.Format(*e.VATInput), ledger.Format(*e.VATOutput))
	}
	plain, _, err := std.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-03-02", Vendor: "Shop", Amount: amt(t, "-50")}, RaiseOnDuplicate)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if plain.VATInput != nil || plain.VATOutput == nil || !plain.VATOutput.IsZero() {
		t.Fatalf("standard non-rc vat should stay unresolved: %v %v", plain.VATInput, plain.VATOutput)
	}

	// unrelated edits keep the stored VAT
	kept, err := std.UpdateExpense(ctx, e.ID, ExpensePatch{Notes: ptr("annual plan")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ledger.Minor(*kept.VATInput) != 1900 {
		t.Fatalf("vat changed on unrelated update: %s", ledger.Format(*kept.VATInput))
	}
	changed, err := std.UpdateExpense(ctx, e.ID, ExpensePatch{Amount: ptr(amt(t, "-200"))})
	if err != nil {
		t.Fatalf("update amount: %v", err)
	}
	if ledger.Minor(*changed.VATOutput) != 3800 || ledger.Minor(*changed.VATInput) != 3800 {
		t.Fatalf("vat after amount change: %s", ledger.Format(*changed.VATOutput))
	}

	small, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	for i, a := range []string{"-1", "-999.99", "12.34"} {
		e, _, err := small.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-04-01", Vendor: "V", Amount: amt(t, a), ReceiptName: string(rune('a' + i))}, RaiseOnDuplicate)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if !e.VATInput.IsZero() || !e.VATOutput.IsZero() {
			t.Fatalf("small business vat for %s: %v %v", a, e.VATInput, e.VATOutput)
		}
	}
}

func TestUpdateClassification(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness, PrivateAccounts: []string{"Privat"}})
	ctx := context.Background()
	e, _, err := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-05-01", Vendor: "Fuel", Amount: amt(t, "-60"), Account: "Privat"}, RaiseOnDuplicate)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.PrivateClass != ledger.PrivateAccountRule {
		t.Fatalf("create classification: %s", e.PrivateClass)
	}
	e, err = svc.UpdateExpense(ctx, e.ID, ExpensePatch{PrivatePaid: ptr(true)})
	if err != nil || e.PrivateClass != ledger.PrivateManual {
		t.Fatalf("manual: %v %s", err, e.PrivateClass)
	}
	e, err = svc.UpdateExpense(ctx, e.ID, ExpensePatch{Account: ptr("Geschäftskonto")})
	if err != nil || e.PrivateClass != ledger.PrivateManual || !e.PrivatePaid {
		t.Fatalf("manual must survive account change: %v %s", err, e.PrivateClass)
	}
	e, err = svc.UpdateExpense(ctx, e.ID, ExpensePatch{PrivatePaid: ptr(false)})
	if err != nil || e.PrivateClass != ledger.PrivateNone || e.PrivatePaid {
		t.Fatalf("forced none: %v %s", err, e.PrivateClass)
	}
	e, err = svc.UpdateExpense(ctx, e.ID, ExpensePatch{Category: ptr("Fahrtkosten (Nutzungseinlage)")})
	if err != nil || e.PrivateClass != ledger.PrivateCategoryRule {
		t.Fatalf("category rule: %v %s", err, e.PrivateClass)
	}
}

func TestUpdateAndDeleteMissingRecord(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	ctx := context.Background()
	if _, err := svc.UpdateExpense(ctx, 42, ExpensePatch{Notes: ptr("x")}); !errs.Is(err, errs.CodeNotFound) {
		t.Fatalf("update: %v", err)
	}
	if err := svc.DeleteIncome(ctx, 42); !errs.Is(err, errs.CodeNotFound) || !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("delete: %v", err)
	}
}

func TestUpdateRejectsFingerprintCollision(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	ctx := context.Background()
	a, _, _ := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-01-01", Vendor: "A", Amount: amt(t, "-1")}, RaiseOnDuplicate)
	b, _, _ := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-01-01", Vendor: "B", Amount: amt(t, "-1")}, RaiseOnDuplicate)
	_, err := svc.UpdateExpense(ctx, b.ID, ExpensePatch{Vendor: ptr("A")})
	if !errs.Is(err, errs.CodeDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if id, _ := errs.Detail(err, "existing_id"); id != a.ID {
		t.Fatalf("existing id: %v", id)
	}
	if n := len(trail(t, svc, ledger.TableExpenses, b.ID)); n != 1 {
		t.Fatalf("failed update must not write audit, got %d rows", n)
	}
}

func TestDeleteWritesPreStateOnly(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	ctx := context.Background()
	e, _, _ := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-01-01", Vendor: "A", Amount: amt(t, "-1")}, RaiseOnDuplicate)
	if err := svc.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	entries := trail(t, svc, ledger.TableExpenses, e.ID)
	if len(entries) != 2 {
		t.Fatalf("audit rows: %d", len(entries))
	}
	last := entries[1]
	if last.Action != ledger.AuditDelete || last.OldState == nil || last.NewState != nil {
		t.Fatalf("delete audit: %+v", last)
	}
	if _, err := svc.Expense(ctx, e.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get deleted: %v", err)
	}
}

func TestDeleteExpenseDetachesLinkedTransfers(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	ctx := context.Background()
	e, _, err := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-02-01", Vendor: "Garage", Amount: amt(t, "-80")}, RaiseOnDuplicate)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	p, _, err := svc.CreateTransfer(ctx, TransferInput{Date: "2026-02-02", Type: ledger.TransferDeposit, Amount: amt(t, "80"), Description: "Garage bill", RelatedExpenseID: &e.ID}, RaiseOnDuplicate)
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	if err := svc.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := svc.Transfer(ctx, p.ID)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if got.RelatedExpenseID != nil {
		t.Fatalf("transfer still linked to #%d", *got.RelatedExpenseID)
	}
	entries := trail(t, svc, ledger.TableTransfers, p.ID)
	if len(entries) != 2 || entries[1].Action != ledger.AuditUpdate {
		t.Fatalf("transfer audit: %+v", entries)
	}
	before, _ := audit.Decode(entries[1].OldState)
	after, _ := audit.Decode(entries[1].NewState)
	if diff := before.Diff(after); len(diff) != 1 || diff[0] != "related_expense_id" {
		t.Fatalf("transfer diff: %v", diff)
	}
}

func TestRejectsAmountsBeyondCents(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	ctx := context.Background()
	huge := money.MustParseAmount("EUR", "-99999999999999999.99")
	_, _, err := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-03-01", Vendor: "Big", Amount: huge}, RaiseOnDuplicate)
	if !errs.Is(err, errs.CodeInvalidAmount) {
		t.Fatalf("expense: want invalid_amount, got %v", err)
	}
	_, _, err = svc.CreateIncome(ctx, IncomeInput{PaymentDate: "2026-03-01", Source: "Big", Amount: huge.Neg()}, RaiseOnDuplicate)
	if !errs.Is(err, errs.CodeInvalidAmount) {
		t.Fatalf("income: want invalid_amount, got %v", err)
	}
	_, _, err = svc.CreateTransfer(ctx, TransferInput{Date: "2026-03-01", Type: ledger.TransferDeposit, Amount: huge.Neg(), Description: "Big"}, RaiseOnDuplicate)
	if !errs.Is(err, errs.CodeInvalidAmount) {
		t.Fatalf("transfer: want invalid_amount, got %v", err)
	}
	e, _, err := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-03-01", Vendor: "Big", Amount: amt(t, "-1")}, RaiseOnDuplicate)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateExpense(ctx, e.ID, ExpensePatch{Amount: &huge}); !errs.Is(err, errs.CodeInvalidAmount) {
		t.Fatalf("update: want invalid_amount, got %v", err)
	}
	if list, _ := svc.Expenses(ctx, 0, 0, ""); len(list) != 1 || ledger.Minor(list[0].Amount) != -100 {
		t.Fatalf("stored expenses: %+v", list)
	}
}

func TestIncomeAnomalyAndStandardOverride(t *testing.T) {
	ctx := context.Background()
	small, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	i, out, err := small.CreateIncome(ctx, IncomeInput{InvoiceDate: "2026-06-01", Source: "Client", Amount: amt(t, "1190"), Category: "Consulting", VAT: ptr(amt(t, "190"))}, RaiseOnDuplicate)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !i.VATOutput.IsZero() || len(out.Warnings) != 1 {
		t.Fatalf("anomaly: %v %v", i.VATOutput, out.Warnings)
	}
	if i.CategoryLine == nil || *i.CategoryLine != 14 {
		t.Fatalf("category line: %v", i.CategoryLine)
	}

	std, _ := newService(t, Settings{TaxMode: tax.Standard})
	i, out, err = std.CreateIncome(ctx, IncomeInput{PaymentDate: "2026-06-02", Source: "Client", Amount: amt(t, "1190"), VAT: ptr(amt(t, "190"))}, RaiseOnDuplicate)
	if err != nil || len(out.Warnings) != 0 {
		t.Fatalf("create: %v %v", err, out.Warnings)
	}
	if ledger.Minor(*i.VATOutput) != 19000 {
		t.Fatalf("override kept: %s", ledger.Format(*i.VATOutput))
	}
	i, _, err = std.UpdateIncome(ctx, i.ID, IncomePatch{Notes: ptr("paid late")})
	if err != nil || ledger.Minor(*i.VATOutput) != 19000 {
		t.Fatalf("vat retained: %v %v", err, i.VATOutput)
	}
}

func TestTransfers(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	ctx := context.Background()
	cases := []struct {
		name string
		in   TransferInput
		code errs.Code
	}{
		{"type", TransferInput{Date: "2026-01-01", Type: "gift", Amount: amt(t, "1"), Description: "x"}, errs.CodeInvalidType},
		{"zero amount", TransferInput{Date: "2026-01-01", Type: ledger.TransferDeposit, Amount: amt(t, "0"), Description: "x"}, errs.CodeInvalidAmount},
		{"negative amount", TransferInput{Date: "2026-01-01", Type: ledger.TransferDeposit, Amount: amt(t, "-5"), Description: "x"}, errs.CodeInvalidAmount},
		{"blank description", TransferInput{Date: "2026-01-01", Type: ledger.TransferWithdrawal, Amount: amt(t, "5"), Description: "  "}, errs.CodeInvalidDescription},
		{"no date", TransferInput{Type: ledger.TransferWithdrawal, Amount: amt(t, "5"), Description: "x"}, errs.CodeMissingDates},
		{"dangling expense", TransferInput{Date: "2026-01-01", Type: ledger.TransferDeposit, Amount: amt(t, "5"), Description: "x", RelatedExpenseID: ptr(int64(99))}, errs.CodeExpenseNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.CreateTransfer(ctx, tc.in, RaiseOnDuplicate); !errs.Is(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}

	e, _, _ := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-01-05", Vendor: "Laptop", Amount: amt(t, "-800")}, RaiseOnDuplicate)
	p, _, err := svc.CreateTransfer(ctx, TransferInput{Date: "2026-01-05", Type: ledger.TransferDeposit, Amount: amt(t, "800"), Description: "Einlage Laptop", RelatedExpenseID: &e.ID}, RaiseOnDuplicate)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p, err = svc.UpdateTransfer(ctx, p.ID, TransferPatch{ClearRelatedExpense: true, Amount: ptr(amt(t, "750"))})
	if err != nil || p.RelatedExpenseID != nil || ledger.Minor(p.Amount) != 75000 {
		t.Fatalf("update: %v %+v", err, p)
	}
	if _, err := svc.UpdateTransfer(ctx, p.ID, TransferPatch{Amount: ptr(amt(t, "0"))}); !errs.Is(err, errs.CodeInvalidAmount) {
		t.Fatalf("update validation: %v", err)
	}
	list, err := svc.Transfers(ctx, ledger.TransferFilter{Type: ledger.TransferDeposit, Year: 2026})
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %d", err, len(list))
	}
	if n := len(trail(t, svc, ledger.TableTransfers, p.ID)); n != 2 {
		t.Fatalf("audit rows: %d", n)
	}
}

func TestBatchDryRunWritesNothing(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	ctx := context.Background()
	err := svc.Batch(ctx, true, func(u *Unit) error {
		_, _, err := u.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-01-01", Vendor: "A", Amount: amt(t, "-1")}, SkipDuplicates)
		return err
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	list, _ := svc.Expenses(ctx, 0, 0, "")
	audits, _ := svc.RecentAudit(ctx, 10)
	if len(list) != 0 || len(audits) != 0 {
		t.Fatalf("dry run persisted %d rows, %d audits", len(list), len(audits))
	}
}

func TestReports(t *testing.T) {
	svc, _ := newService(t, Settings{TaxMode: tax.Standard, PrivateAccounts: []string{"privat"}})
	ctx := context.Background()
	if _, _, err := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-02-01", InvoiceDate: "2026-02-01", Vendor: "A", Amount: amt(t, "-100"), Category: "Office Supplies", Account: "privat", ReverseCharge: true, ReceiptName: "a.pdf"}, RaiseOnDuplicate); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if _, _, err := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-02-02", Vendor: "Finanzamt", Amount: amt(t, "-50"), Category: "Gezahlte USt", Account: "Bank"}, RaiseOnDuplicate); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if _, _, err := svc.CreateIncome(ctx, IncomeInput{PaymentDate: "2026-02-03", Source: "Client", Amount: amt(t, "1000"), Category: "Consulting", VAT: ptr(amt(t, "190"))}, RaiseOnDuplicate); err != nil {
		t.Fatalf("income: %v", err)
	}
	if _, _, err := svc.CreateTransfer(ctx, TransferInput{Date: "2026-03-01", Type: ledger.TransferWithdrawal, Amount: amt(t, "30"), Description: "Entnahme"}, RaiseOnDuplicate); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	ps, err := svc.PrivateSummary(ctx, 2026)
	if err != nil {
		t.Fatalf("private summary: %v", err)
	}
	if ledger.Minor(ps.DepositsInKind) != 10000 || ledger.Minor(ps.Withdrawals) != 3000 || ledger.Minor(ps.Balance) != 7000 {
		t.Fatalf("private summary: %+v", ps)
	}

	sum, err := svc.Summary(ctx, 2026)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if ledger.Minor(sum.ExpenseTotal) != -15000 || ledger.Minor(sum.IncomeTotal) != 100000 || ledger.Minor(sum.Result) != 85000 {
		t.Fatalf("totals: %+v", sum)
	}
	if ledger.Minor(sum.VATOutput) != 20900 || ledger.Minor(sum.VATInput) != 1900 || ledger.Minor(sum.VATPayable) != 19000 {
		t.Fatalf("vat: in %s out %s", ledger.Format(sum.VATInput), ledger.Format(sum.VATOutput))
	}
	if len(sum.Expenses) != 2 || sum.Expenses[0].Name != "Gezahlte USt" {
		t.Fatalf("expense categories: %+v", sum.Expenses)
	}

	entries, err := svc.Incomplete(ctx, nil, 2026)
	if err != nil {
		t.Fatalf("incomplete: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("incomplete entries: %+v", entries)
	}
	// paid VAT needs no receipt; standard non-RC without override lacks vat
	finanzamt := entries[1]
	if finanzamt.Party != "Finanzamt" {
		t.Fatalf("order: %+v", entries)
	}
	for _, m := range finanzamt.Missing {
		if m == "receipt" {
			t.Fatalf("paid VAT should not require a receipt: %v", finanzamt.Missing)
		}
	}
	if got := finanzamt.Missing; len(got) != 2 || got[0] != "invoice_date" || got[1] != "vat" {
		t.Fatalf("missing: %v", got)
	}

	if _, err := svc.AuditTrail(ctx, "users", 1); !errs.Is(err, errs.CodeInvalidType) {
		t.Fatalf("unknown table: %v", err)
	}
}

func TestMetricsFlushOnCommit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Settings{TaxMode: tax.SmallBusiness})
	reg := prometheus.NewRegistry()
	svc.metrics = metrics.New(reg)
	if _, _, err := svc.CreateExpense(ctx, ExpenseInput{PaymentDate: "2026-01-01", Vendor: "A", Amount: amt(t, "-1")}, RaiseOnDuplicate); err != nil {
		t.Fatalf("create: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "euer_mutations_total" {
			if v := f.GetMetric()[0].GetCounter().GetValue(); v != 1 {
				t.Fatalf("mutations: %v", v)
			}
			return
		}
	}
	t.Fatalf("euer_mutations_total not gathered")
}
