package sqlbuilder

// InsertBuilder builds an INSERT statement, optionally with a RETURNING
// clause (Postgres) — on SQLite the compiler issues a follow-up SELECT
// instead, since SQLite's RETURNING support is version-gated.
type InsertBuilder struct {
	dialect    Dialect
	table      string
	columns    []string
	values     [][]any
	returning  []string
	onConflict string
}

// InsertInto starts an InsertBuilder for table.
func InsertInto(d Dialect, table string) *InsertBuilder {
	return &InsertBuilder{dialect: d, table: table}
}

// Columns sets the column list, shared by every row appended via Values.
func (ib *InsertBuilder) Columns(cols ...string) *InsertBuilder {
	ib.columns = cols
	return ib
}

// Values appends one row's worth of column values, in Columns order.
func (ib *InsertBuilder) Values(vs ...any) *InsertBuilder {
	ib.values = append(ib.values, vs)
	return ib
}

// Returning requests columns back via RETURNING (Postgres only).
func (ib *InsertBuilder) Returning(cols ...string) *InsertBuilder {
	ib.returning = cols
	return ib
}

// OnConflictDoNothing appends "ON CONFLICT (cols) DO NOTHING" /
// "OR IGNORE" per dialect, used by get-or-create's idempotent insert path.
func (ib *InsertBuilder) OnConflictDoNothing(cols ...string) *InsertBuilder {
	ib.onConflict = colList(cols)
	return ib
}

func colList(cols []string) string {
	s := ""
	for i, c := range cols {
		if i > 0 {
			s += ", "
		}
		s += c
	}
	return s
}

// Query renders the INSERT statement.
func (ib *InsertBuilder) Query() (string, []any) {
	b := New(ib.dialect)
	if ib.onConflict != "" && ib.dialect == SQLite {
		b.WriteString("INSERT OR IGNORE INTO ")
	} else {
		b.WriteString("INSERT INTO ")
	}
	b.Ident(ib.table).WriteString(" (")
	for i, c := range ib.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(c)
	}
	b.WriteString(") VALUES ")
	for ri, row := range ib.values {
		if ri > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for i, v := range row {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Arg(v)
		}
		b.WriteString(")")
	}
	if ib.onConflict != "" && ib.dialect == Postgres {
		b.WriteString(" ON CONFLICT (" + ib.onConflict + ") DO NOTHING")
	}
	if len(ib.returning) > 0 && ib.dialect == Postgres {
		b.WriteString(" RETURNING ")
		for i, c := range ib.returning {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Ident(c)
		}
	}
	return b.Query()
}

// UpdateBuilder builds an UPDATE statement.
type UpdateBuilder struct {
	dialect Dialect
	table   string
	sets    []setClause
	where   []Predicate
}

type setClause struct {
	column string
	value  any
	raw    string // when non-empty, rendered verbatim instead of Arg(value) (e.g. "version = version + 1")
}

// Update starts an UpdateBuilder for table.
func Update(d Dialect, table string) *UpdateBuilder {
	return &UpdateBuilder{dialect: d, table: table}
}

// Set appends "column = ?".
func (ub *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	ub.sets = append(ub.sets, setClause{column: column, value: value})
	return ub
}

// SetRaw appends a raw SET expression, e.g. "version", "version + 1", for
// the optimistic-concurrency version bump.
func (ub *UpdateBuilder) SetRaw(column, expr string) *UpdateBuilder {
	ub.sets = append(ub.sets, setClause{column: column, raw: expr})
	return ub
}

// Where adds a predicate, ANDed with any others already present.
func (ub *UpdateBuilder) Where(p Predicate) *UpdateBuilder {
	ub.where = append(ub.where, p)
	return ub
}

// Query renders the UPDATE statement.
func (ub *UpdateBuilder) Query() (string, []any) {
	b := New(ub.dialect)
	b.WriteString("UPDATE ").Ident(ub.table).WriteString(" SET ")
	for i, s := range ub.sets {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(s.column).WriteString(" = ")
		if s.raw != "" {
			b.WriteString(s.raw)
		} else {
			b.Arg(s.value)
		}
	}
	if len(ub.where) > 0 {
		b.WriteString(" WHERE ")
		And(ub.where...)(b)
	}
	return b.Query()
}

// DeleteBuilder builds a DELETE statement.
type DeleteBuilder struct {
	dialect Dialect
	table   string
	where   []Predicate
}

// DeleteFrom starts a DeleteBuilder for table.
func DeleteFrom(d Dialect, table string) *DeleteBuilder {
	return &DeleteBuilder{dialect: d, table: table}
}

// Where adds a predicate, ANDed with any others already present.
func (db *DeleteBuilder) Where(p Predicate) *DeleteBuilder {
	db.where = append(db.where, p)
	return db
}

// Query renders the DELETE statement.
func (db *DeleteBuilder) Query() (string, []any) {
	b := New(db.dialect)
	b.WriteString("DELETE FROM ").Ident(db.table)
	if len(db.where) > 0 {
		b.WriteString(" WHERE ")
		And(db.where...)(b)
	}
	return b.Query()
}
