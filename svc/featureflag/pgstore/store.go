// Package pgstore implements featureflag.Store on PostgreSQL with pgx/v5.
//
// The schema ships as embedded goose migrations; call Migrate before first use.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/pg"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the feature_flags schema up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, migrations, "migrations", cfg, log)
}

// DB is the subset of *pgxpool.Pool used by Store. A pgx.Tx satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a featureflag.Store backed by the feature_flags table.
type Store struct {
	db DB
}

// New creates a Store on db.
func New(db DB) *Store {
	return &Store{db: db}
}

const columns = `id, name, code, description, enabled, rule, created_at, updated_at, deleted_at`

func (s *Store) Insert(ctx context.Context, flag *feature.Flag) (uuid.UUID, error) {
	rule, err := feature.MarshalRule(flag.Rule)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = s.db.QueryRow(ctx, `
		INSERT INTO feature_flags (id, name, code, description, enabled, rule_kind, rule)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		uuid.New(), flag.Name, flag.Code, flag.Description, flag.Enabled, string(flag.Kind()), rule,
	).Scan(&id)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return uuid.Nil, feature.ErrFlagExists
		}
		return uuid.Nil, fmt.Errorf("insert feature flag: %w", err)
	}
	return id, nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*feature.Flag, error) {
	return s.one(ctx, `SELECT `+columns+` FROM feature_flags WHERE id = $1 AND deleted_at IS NULL`, id)
}

func (s *Store) FindByCode(ctx context.Context, code string) (*feature.Flag, error) {
	return s.one(ctx, `SELECT `+columns+` FROM feature_flags WHERE code = $1 AND deleted_at IS NULL`, code)
}

func (s *Store) UpdateEnabled(ctx context.Context, code string, enabled bool) (*feature.Flag, error) {
	return s.one(ctx, `
		UPDATE feature_flags SET enabled = $2, updated_at = now()
		WHERE code = $1 AND deleted_at IS NULL
		RETURNING `+columns, code, enabled)
}

func (s *Store) Update(ctx context.Context, code string, flag *feature.Flag) (*feature.Flag, error) {
	rule, err := feature.MarshalRule(flag.Rule)
	if err != nil {
		return nil, err
	}
	return s.one(ctx, `
		UPDATE feature_flags
		SET name = $2, description = $3, enabled = $4, rule_kind = $5, rule = $6, updated_at = now()
		WHERE code = $1 AND deleted_at IS NULL
		RETURNING `+columns,
		code, flag.Name, flag.Description, flag.Enabled, string(flag.Kind()), rule)
}

func (s *Store) UpdateFields(ctx context.Context, code string, patch feature.Patch) (*feature.Flag, error) {
	var kind *string
	var rule []byte
	if patch.Rule != nil {
		k := string(feature.KindOf(patch.Rule))
		kind = &k
		var err error
		if rule, err = feature.MarshalRule(patch.Rule); err != nil {
			return nil, err
		}
	}
	return s.one(ctx, `
		UPDATE feature_flags
		SET enabled     = COALESCE($2::boolean, enabled),
		    description = COALESCE($3::text, description),
		    rule_kind   = COALESCE($4::varchar, rule_kind),
		    rule        = COALESCE($5::jsonb, rule),
		    updated_at  = now()
		WHERE code = $1 AND deleted_at IS NULL
		RETURNING `+columns,
		code, patch.Enabled, patch.Description, kind, rule)
}

func (s *Store) SoftDelete(ctx context.Context, code string) (*feature.Flag, error) {
	return s.one(ctx, `
		UPDATE feature_flags SET deleted_at = now()
		WHERE code = $1 AND deleted_at IS NULL
		RETURNING `+columns, code)
}

func (s *Store) Query(ctx context.Context, q feature.ListQuery) (feature.Page[*feature.Flag], error) {
	q = q.Normalize()
	where, args := filter(q)
	page := feature.Page[*feature.Flag]{Items: []*feature.Flag{}}

	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM feature_flags WHERE `+where, args...).Scan(&page.Count); err != nil {
		return page, fmt.Errorf("count feature flags: %w", err)
	}
	if page.Count == 0 {
		return page, nil
	}

	args = append(args, q.Limit, q.Offset)
	rows, err := s.db.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM feature_flags WHERE %s ORDER BY code COLLATE "C" ASC LIMIT $%d OFFSET $%d`,
		columns, where, len(args)-1, len(args),
	), args...)
	if err != nil {
		return page, fmt.Errorf("query feature flags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, flag)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("query feature flags: %w", err)
	}
	return page, nil
}

// filter builds the WHERE clause for q with positional arguments.
func filter(q feature.ListQuery) (string, []any) {
	clauses := []string{"deleted_at IS NULL"}
	var args []any
	if q.Keyword != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(q.Keyword))+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			`(lower(name) LIKE $%[1]d ESCAPE '\' OR lower(description) LIKE $%[1]d ESCAPE '\' OR lower(code) LIKE $%[1]d ESCAPE '\')`, n))
	}
	if q.Enabled != nil {
		args = append(args, *q.Enabled)
		clauses = append(clauses, fmt.Sprintf("enabled = $%d", len(args)))
	}
	if q.Kind != nil {
		args = append(args, string(*q.Kind))
		clauses = append(clauses, fmt.Sprintf("rule_kind = $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *Store) one(ctx context.Context, sql string, args ...any) (*feature.Flag, error) {
	flag, err := scanFlag(s.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, feature.ErrFlagNotFound
		}
		return nil, err
	}
	return flag, nil
}

func scanFlag(row pgx.Row) (*feature.Flag, error) {
	var (
		f    feature.Flag
		rule []byte
	)
	if err := row.Scan(&f.ID, &f.Name, &f.Code, &f.Description, &f.Enabled, &rule, &f.CreatedAt, &f.UpdatedAt, &f.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan feature flag: %w", err)
	}
	r, err := feature.UnmarshalRule(rule)
	if err != nil {
		return nil, fmt.Errorf("decode rule of feature flag %q: %w", f.Code, err)
	}
	f.Rule = r
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = utc(f.UpdatedAt)
	f.DeletedAt = utc(f.DeletedAt)
	return &f, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
