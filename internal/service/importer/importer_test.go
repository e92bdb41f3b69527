package importer

import (
	"context"
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tinoosan/euer/internal/errs"
	"github.com/tinoosan/euer/internal/ledger"
	"github.com/tinoosan/euer/internal/service/mutation"
	"github.com/tinoosan/euer/internal/storage/sqlite"
	"github.com/tinoosan/euer/internal/tax"
)

func newImporter(t *testing.T) (*Importer, *mutation.Service) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	svc, err := mutation.New(store, mutation.Settings{TaxMode: tax.SmallBusiness, PrivateAccounts: []string{"Privat"}})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return New(svc), svc
}

func TestNormalize(t *testing.T) {
	r := Normalize(map[string]any{
		"\ufeffDatum":    "2026-03-19",
		"Lieferant":      " 1und1 ",
		"Kategorie":      "Telekommunikation (44)",
		"Betrag in EUR":  "-39,99",
		"Privat bezahlt": "X",
		"RC":             "ja",
		"Vorsteuer":      "",
	})
	if r.Type != ledger.CategoryTypeExpense {
		t.Fatalf("type from sign: %q", r.Type)
	}
	if r.PaymentDate != "2026-03-19" || r.Party != "1und1" || r.Category != "Telekommunikation" {
		t.Fatalf("fields: %+v", r)
	}
	if r.Amount == nil || ledger.Minor(*r.Amount) != -3999 {
		t.Fatalf("amount: %v", r.Amount)
	}
	if !r.PrivatePaid || !r.ReverseCharge || r.VATInput != nil {
		t.Fatalf("flags: %+v", r)
	}

	r = Normalize(map[string]any{"type": "Einnahme", "amount": json.Number("2500.5"), "source": "Kunde"})
	if r.Type != ledger.CategoryTypeIncome || ledger.Minor(*r.Amount) != 250050 {
		t.Fatalf("explicit type: %+v", r)
	}
	if got := r.Missing(); !reflect.DeepEqual(got, []string{"payment_date|invoice_date"}) {
		t.Fatalf("missing: %v", got)
	}

	r = Normalize(map[string]any{"amount_eur": 12.5, "category": "Kurs (Teil 2)"})
	if ledger.Minor(*r.Amount) != 1250 || r.Category != "Kurs (Teil 2)" {
		t.Fatalf("float amount or non-numeric suffix: %+v", r)
	}
	if got := Normalize(map[string]any{"amount": "abc"}).Missing(); !reflect.DeepEqual(got, []string{"type", "payment_date|invoice_date", "amount_eur", "party"}) {
		t.Fatalf("missing all: %v", got)
	}

	r = Normalize(map[string]any{"type": "transfer", "date": "2026-01-01", "party": "Bank", "amount": "-20"})
	if r.Type != "" {
		t.Fatalf("unknown explicit type must not fall back to the sign: %q", r.Type)
	}
	if got := r.Missing(); !reflect.DeepEqual(got, []string{"type"}) {
		t.Fatalf("missing with unknown type: %v", got)
	}
}

func TestImportRejectsWholeBatch(t *testing.T) {
	im, svc := newImporter(t)
	ctx := context.Background()
	rows := make([]map[string]any, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, map[string]any{
			"date":       "2026-01-0" + string(rune('1'+i)),
			"party":      "Vendor",
			"amount_eur": "-10",
		})
	}
	delete(rows[2], "party")

	res, err := im.Import(ctx, rows, false)
	if !errs.Is(err, errs.CodeMissingFields) {
		t.Fatalf("expected missing_fields, got %v", err)
	}
	if !reflect.DeepEqual(res.Errors, []RowError{{Index: 3, Missing: []string{"party"}}}) {
		t.Fatalf("row errors: %+v", res.Errors)
	}
	list, _ := svc.Expenses(ctx, 0, 0, "")
	if len(list) != 0 || res.InsertedExpenses != 0 {
		t.Fatalf("batch must not write: %d rows", len(list))
	}
}

const sample = "\ufeffTyp,Datum,Partei,Kategorie,Betrag,Konto,Beleg\n" +
	"Ausgabe,2026-02-01,Telekom,Telekommunikation (44),\"-39,99\",Privat,t.pdf\n" +
	"Einnahme,2026-02-02,Kunde GmbH,Umsatzsteuerpflichtige Betriebseinnahmen (14),2500.00,,r1.pdf\n" +
	"Ausgabe,2026-02-03,Shop,Nicht vorhanden,-5,,\n" +
	"Ausgabe,2026-02-01,Telekom,Telekommunikation,-39.99,,t.pdf\n"

func TestImportCSV(t *testing.T) {
	im, svc := newImporter(t)
	ctx := context.Background()
	raw, err := ReadCSV(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	dry, err := im.Import(ctx, raw, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.InsertedExpenses != 2 || dry.InsertedIncome != 1 || dry.Duplicates != 1 {
		t.Fatalf("dry run counts: %+v", dry)
	}
	if list, _ := svc.Expenses(ctx, 0, 0, ""); len(list) != 0 {
		t.Fatalf("dry run wrote %d rows", len(list))
	}

	res, err := im.Import(ctx, raw, false)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Total != 4 || res.InsertedExpenses != 2 || res.InsertedIncome != 1 || res.Duplicates != 1 {
		t.Fatalf("counts: %+v", res)
	}
	expenses, _ := svc.Expenses(ctx, 2026, 2, "")
	if len(expenses) != 2 {
		t.Fatalf("expenses: %d", len(expenses))
	}
	telekom, shop := expenses[0], expenses[1]
	if telekom.CategoryName != "Telekommunikation" || !telekom.PrivatePaid || telekom.PrivateClass != ledger.PrivateAccountRule {
		t.Fatalf("telekom: %+v", telekom)
	}
	if shop.CategoryID != nil {
		t.Fatalf("unknown category should be dropped: %+v", shop)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Nicht vorhanden") {
		t.Fatalf("warnings: %v", res.Warnings)
	}

	again, err := im.Import(ctx, raw, false)
	if err != nil || again.Duplicates != 4 {
		t.Fatalf("reimport: %v %+v", err, again)
	}
}

func TestImportPassthroughVAT(t *testing.T) {
	im, svc := newImporter(t)
	ctx := context.Background()
	raw, err := ReadJSONL(strings.NewReader(`{"type":"expense","date":"2026-05-01","party":"AWS","amount_eur":-100,"rc":true,"vat_output":"18.50"}

{"type":"income","date":"2026-05-02","party":"Kunde","amount_eur":100,"vat_output":19}
`))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	res, err := im.Import(ctx, raw, false)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("income VAT under small business should warn: %v", res.Warnings)
	}
	expenses, _ := svc.Expenses(ctx, 0, 0, "")
	e := expenses[0]
	if ledger.Minor(*e.VATOutput) != 1850 || !e.VATInput.IsZero() {
		t.Fatalf("vat passthrough: %s %s", ledger.Format(*e.VATOutput), ledger.Format(*e.VATInput))
	}
}

func TestReadFormats(t *testing.T) {
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("xml must be rejected")
	}
	if f, _ := ParseFormat("NDJSON"); f != FormatJSONL {
		t.Fatalf("ndjson alias: %q", f)
	}
	if _, err := ReadJSONL(strings.NewReader("{broken\n")); err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("jsonl error: %v", err)
	}
}
