package mutation

import (
    "context"
    "strings"

    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/ledger"
    "github.com/tinoosan/euer/internal/storage"
)

// Categories lists categories of one type, or all when typ is nil.
func (s *Service) Categories(ctx context.Context, typ *ledger.CategoryType) ([]ledger.Category, error) {
    var out []ledger.Category
    err := s.read(ctx, func(tx storage.Tx) error {
        var err error
        out, err = tx.ListCategories(ctx, typ)
        return err
    })
    return out, err
}

// CategoryByName resolves a category case-insensitively. Unknown names fail
// with errs.CodeCategoryNotFound carrying the valid names for the type.
func (s *Service) CategoryByName(ctx context.Context, name string, typ ledger.CategoryType) (ledger.Category, error) {
    var out ledger.Category
    err := s.read(ctx, func(tx storage.Tx) error {
        c, err := findCategory(ctx, tx, name, typ)
        if err != nil { return err }
        out = c
        return nil
    })
    return out, err
}

func findCategory(ctx context.Context, tx storage.CategoryReader, name string, typ ledger.CategoryType) (ledger.Category, error) {
    cats, err := tx.ListCategories(ctx, &typ)
    if err != nil { return ledger.Category{}, err }
    want := strings.TrimSpace(name)
    for _, c := range cats {
        if strings.EqualFold(c.Name, want) { return c, nil }
    }
    valid := make([]string, 0, len(cats))
    for _, c := range cats { valid = append(valid, c.Label()) }
    return ledger.Category{}, errs.New(errs.CodeCategoryNotFound,
        map[string]any{"category": name, "type": string(typ), "valid": valid},
        "category %q not found", name)
}

// resolveCategory picks the category for a create or update. A ledger account
// key takes precedence over a category name; both empty means no category.
// The returned key is the configured spelling of the ledger account.
func (u *Unit) resolveCategory(ctx context.Context, name, ledgerKey string, typ ledger.CategoryType) (*ledger.Category, string, error) {
    if key := strings.TrimSpace(ledgerKey); key != "" {
        acc, cat, err := u.resolveLedgerAccount(ctx, key, typ)
        if err != nil { return nil, "", err }
        return &cat, acc.Key, nil
    }
    if strings.TrimSpace(name) == "" { return nil, "", nil }
    cat, err := findCategory(ctx, u.tx, name, typ)
    if err != nil { return nil, "", err }
    return &cat, "", nil
}

func (u *Unit) resolveLedgerAccount(ctx context.Context, key string, typ ledger.CategoryType) (ledger.LedgerAccount, ledger.Category, error) {
    for _, acc := range u.s.settings.LedgerAccounts {
        if !strings.EqualFold(acc.Key, key) { continue }
        cat, err := findCategory(ctx, u.tx, acc.Category, typ)
        if err == nil { return acc, cat, nil }
        if !errs.Is(err, errs.CodeCategoryNotFound) { return acc, ledger.Category{}, err }
        other := ledger.CategoryTypeIncome
        if typ == ledger.CategoryTypeIncome { other = ledger.CategoryTypeExpense }
        if _, otherErr := findCategory(ctx, u.tx, acc.Category, other); otherErr == nil {
            return acc, ledger.Category{}, errs.New(errs.CodeLedgerAccountTypeMismatch,
                map[string]any{"ledger_account": acc.Key, "expected_type": string(typ), "actual_type": string(other)},
                "ledger account %q does not book %s", acc.Key, typ)
        }
        return acc, ledger.Category{}, errs.New(errs.CodeCategoryNotFound,
            map[string]any{"category": acc.Category, "ledger_account": acc.Key, "type": string(typ)},
            "category %q of ledger account %q not found", acc.Category, acc.Key)
    }
    return ledger.LedgerAccount{}, ledger.Category{}, errs.New(errs.CodeLedgerAccountNotFound,
        map[string]any{"ledger_account": key, "expected_type": string(typ)},
        "ledger account %q not found", key)
}
