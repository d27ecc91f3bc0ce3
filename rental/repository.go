package rental

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Repository is typed CRUD over one flat table. Every call loads the whole
// table, mutates it in memory and rewrites it; mu serialises that cycle
// within one process. Other processes writing the same table can still race
// (last writer wins).
type Repository[T any] struct {
	mu     sync.Mutex
	store  Store
	schema Schema
	encode func(T) Record
	decode func(Record) (T, error)
	unique []string // columns no two records may share
	log    *zap.Logger
}

func newRepository[T any](st Store, s Schema, enc func(T) Record, dec func(Record) (T, error), log *zap.Logger, unique ...string) *Repository[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository[T]{
		store:  st,
		schema: s,
		encode: enc,
		decode: dec,
		unique: unique,
		log:    log.With(zap.String("table", s.Name)),
	}
}

// Schema returns the descriptor of the backing table.
func (r *Repository[T]) Schema() Schema { return r.schema }

// Add validates v and appends it, unless a unique column already holds the
// same value. Stored cells are compared raw, so rows that no longer decode
// still claim their keys.
func (r *Repository[T]) Add(v T) error {
	if err := validateStruct(v); err != nil {
		return err
	}
	rec := r.encode(v)

	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.store.Load(r.schema)
	if err != nil {
		return err
	}
	for _, field := range r.unique {
		kind := r.schema.KindOf(field)
		for _, existing := range t.Rows {
			if kind.Equal(existing[field], rec[field]) {
				return &DuplicateKeyError{Table: r.schema.Name, Field: field, Value: rec[field]}
			}
		}
	}

	t.Append(rec)
	if err := r.store.Save(r.schema, t); err != nil {
		return err
	}
	r.log.Debug("record added", zap.Int("rows", len(t.Rows)))
	return nil
}

// Delete removes every record matching match and returns how many went.
// Rows that fail to decode are kept. Nothing cascades to other tables.
func (r *Repository[T]) Delete(match func(T) bool) (int, error) {
	return r.DeleteRecords(func(rec Record) bool {
		v, err := r.decode(rec)
		return err == nil && match(v)
	})
}

// DeleteRecords removes every raw record matching match in one rewrite.
// The table is left untouched when nothing matches.
func (r *Repository[T]) DeleteRecords(match func(Record) bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.store.Load(r.schema)
	if err != nil {
		return 0, err
	}
	removed := t.Filter(func(rec Record) bool { return !match(rec) })
	if removed == 0 {
		return 0, nil
	}
	if err := r.store.Save(r.schema, t); err != nil {
		return 0, err
	}
	r.log.Debug("records deleted", zap.Int("removed", removed))
	return removed, nil
}

// FindByField returns the records whose field equals value exactly (case and
// whitespace sensitive), in table order.
func (r *Repository[T]) FindByField(field, value string) ([]T, error) {
	if !r.schema.Has(field) {
		return nil, invalidInput("%s has no column %q", r.schema.Name, field)
	}
	recs, err := r.Records(func(rec Record) bool { return rec[field] == value })
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := r.decode(rec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.schema.Name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// First returns the first record whose field equals value exactly and
// decodes cleanly. Matching rows that do not decode are skipped; the first
// of their errors is returned only when no match decodes. found is false
// when nothing matches.
func (r *Repository[T]) First(field, value string) (v T, found bool, err error) {
	if !r.schema.Has(field) {
		return v, false, invalidInput("%s has no column %q", r.schema.Name, field)
	}
	recs, err := r.Records(func(rec Record) bool { return rec[field] == value })
	if err != nil {
		return v, false, err
	}
	var firstErr error
	for _, rec := range recs {
		dec, err := r.decode(rec)
		if err != nil {
			r.log.Warn("skipping malformed match", zap.String("field", field), zap.String("value", value), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", r.schema.Name, err)
			}
			continue
		}
		return dec, true, nil
	}
	return v, false, firstErr
}

// All returns every decodable record in table order. Malformed rows are
// logged and skipped.
func (r *Repository[T]) All() ([]T, error) {
	recs, err := r.Records(nil)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for i, rec := range recs {
		v, err := r.decode(rec)
		if err != nil {
			r.log.Warn("skipping malformed row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Records returns copies of the raw rows matching match (all rows when match
// is nil), in table order.
func (r *Repository[T]) Records(match func(Record) bool) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.store.Load(r.schema)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range t.Rows {
		if match == nil || match(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// AppendRecords appends raw records in one rewrite.
func (r *Repository[T]) AppendRecords(recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.store.Load(r.schema)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		t.Append(rec.Clone())
	}
	return r.store.Save(r.schema, t)
}

// Update loads the table, hands it to fn and saves it when fn reports a
// change.
func (r *Repository[T]) Update(fn func(t *Table) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.store.Load(r.schema)
	if err != nil {
		return err
	}
	changed, err := fn(t)
	if err != nil || !changed {
		return err
	}
	return r.store.Save(r.schema, t)
}
