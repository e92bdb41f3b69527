package sqlstore

import (
    "context"
    "time"

    "github.com/tinoosan/euer/internal/ledger"
)

const auditSelect = `
    select id, created_at, table_name, record_id, record_uuid, action, old_state, new_state, user_name
    from audit_log`

// AppendAudit inserts one audit row. Rows are never updated or deleted.
func (t *Tx) AppendAudit(ctx context.Context, e ledger.AuditEntry) (int64, error) {
    if e.Timestamp.IsZero() { e.Timestamp = t.now() }
    var id int64
    err := t.c.QueryRow(ctx, `
        insert into audit_log (created_at, table_name, record_id, record_uuid, action, old_state, new_state, user_name)
        values (?, ?, ?, ?, ?, ?, ?, ?)
        returning id
    `, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Table, e.RecordID, nullStr(e.RecordUUID), string(e.Action),
        nullJSON(e.OldState), nullJSON(e.NewState), e.User,
    ).Scan(&id)
    if err != nil { return 0, t.mapErr(err, "append audit") }
    return id, nil
}

// AuditTrail returns the history of one record, oldest first.
func (t *Tx) AuditTrail(ctx context.Context, table string, recordID int64) ([]ledger.AuditEntry, error) {
    return t.queryAudit(ctx, auditSelect+` where table_name = ? and record_id = ? order by id`, table, recordID)
}

// ListAudit returns the most recent entries, newest first. limit <= 0 means all.
func (t *Tx) ListAudit(ctx context.Context, limit int) ([]ledger.AuditEntry, error) {
    q := auditSelect + ` order by id desc`
    args := []any{}
    if limit > 0 {
        q += ` limit ?`
        args = append(args, limit)
    }
    return t.queryAudit(ctx, q, args...)
}

func (t *Tx) queryAudit(ctx context.Context, q string, args ...any) ([]ledger.AuditEntry, error) {
    rows, err := t.c.Query(ctx, q, args...)
    if err != nil { return nil, t.mapErr(err, "read audit") }
    defer rows.Close()
    out := make([]ledger.AuditEntry, 0)
    for rows.Next() {
        var e ledger.AuditEntry
        var ts, action string
        var recordUUID, oldState, newState *string
        if err := rows.Scan(&e.ID, &ts, &e.Table, &e.RecordID, &recordUUID, &action, &oldState, &newState, &e.User); err != nil {
            return nil, err
        }
        e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
        e.RecordUUID = deref(recordUUID)
        e.Action = ledger.AuditAction(action)
        if oldState != nil { e.OldState = []byte(*oldState) }
        if newState != nil { e.NewState = []byte(*newState) }
        out = append(out, e)
    }
    return out, rows.Err()
}

func nullJSON(b []byte) any {
    if b == nil { return nil }
    return string(b)
}
