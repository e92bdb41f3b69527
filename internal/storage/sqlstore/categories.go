package sqlstore

import (
    "context"

    "github.com/google/uuid"

    "github.com/tinoosan/euer/internal/dictionary"
    "github.com/tinoosan/euer/internal/ledger"
)

const categoryColumns = `id, uuid, name, report_line, type`

// ListCategories returns categories ordered by type, report line and name.
// A nil type lists both kinds.
func (t *Tx) ListCategories(ctx context.Context, typ *ledger.CategoryType) ([]ledger.Category, error) {
    q := `select ` + categoryColumns + ` from categories`
    args := []any{}
    if typ != nil {
        q += ` where type = ?`
        args = append(args, string(*typ))
    }
    q += ` order by type, coalesce(report_line, 999), name`
    rows, err := t.c.Query(ctx, q, args...)
    if err != nil { return nil, t.mapErr(err, "list categories") }
    defer rows.Close()
    out := make([]ledger.Category, 0)
    for rows.Next() {
        c, err := scanCategory(rows)
        if err != nil { return nil, err }
        out = append(out, c)
    }
    return out, rows.Err()
}

// CategoryByID fetches one category.
func (t *Tx) CategoryByID(ctx context.Context, id int64) (ledger.Category, error) {
    c, err := scanCategory(t.c.QueryRow(ctx, `select `+categoryColumns+` from categories where id = ?`, id))
    if err != nil { return ledger.Category{}, t.mapErr(err, "get category") }
    return c, nil
}

// SeedCategories inserts the definitions that do not exist yet and returns
// how many rows were added.
func (t *Tx) SeedCategories(ctx context.Context, defs []dictionary.CategoryDef) (int, error) {
    added := 0
    for _, d := range defs {
        n, err := t.c.Exec(ctx, `
            insert into categories (uuid, name, report_line, type)
            values (?, ?, ?, ?)
            on conflict (name, type) do nothing
        `, uuid.NewString(), d.Name, d.ReportLine(), string(d.Type))
        if err != nil { return added, t.mapErr(err, "seed category "+d.Name) }
        added += int(n)
    }
    return added, nil
}

func scanCategory(r Row) (ledger.Category, error) {
    var c ledger.Category
    var id, typ string
    if err := r.Scan(&c.ID, &id, &c.Name, &c.ReportLine, &typ); err != nil { return ledger.Category{}, err }
    c.UUID, _ = uuid.Parse(id)
    c.Type = ledger.CategoryType(typ)
    return c, nil
}
