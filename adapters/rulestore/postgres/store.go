// Package postgres provides the PostgreSQL-backed rule store.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"esim-pricing/core/pricing"
	"esim-pricing/core/types"
	"esim-pricing/internal/config"
	"esim-pricing/internal/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store persists pricing rules in a pricing_rules table, with
// conditions and actions serialized as JSONB.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ pricing.RuleStore = (*Store)(nil)

// Connect opens the database with exponential backoff, configures the
// pool and runs pending migrations.
func Connect(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	var db *sql.DB

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("connecting to PostgreSQL")

	err := backoff.RetryNotify(
		func() error {
			var err error
			db, err = sql.Open("postgres", connStr)
			if err != nil {
				return fmt.Errorf("open: %w", err)
			}
			if err = db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, next time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, errors.Store("connecting to PostgreSQL", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := migrate(ctx, db); err != nil {
		return nil, err
	}

	logger.Info("connected to PostgreSQL")
	return &Store{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Store("setting migration dialect", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.Store("running migrations", err)
	}
	return nil
}

const ruleColumns = `id, type, name, description, conditions, actions, priority, is_active, is_editable, valid_from, valid_until`

// FindActiveRules returns every active rule, highest priority first.
func (s *Store) FindActiveRules(ctx context.Context) ([]types.PricingRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM pricing_rules WHERE is_active = TRUE ORDER BY priority DESC, name`)
	if err != nil {
		return nil, errors.Store("querying active rules", err)
	}
	defer rows.Close()

	var rules []types.PricingRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Store("reading active rules", err)
	}
	return rules, nil
}

// Create inserts a rule, assigning an ID when absent.
func (s *Store) Create(ctx context.Context, rule types.PricingRule) (types.PricingRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	conditions, actions, err := marshalRuleParts(rule)
	if err != nil {
		return types.PricingRule{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pricing_rules (`+ruleColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rule.ID, string(rule.Type), rule.Name, rule.Description,
		conditions, actions, rule.Priority, rule.IsActive, rule.IsEditable,
		rule.ValidFrom, rule.ValidUntil)
	if err != nil {
		return types.PricingRule{}, errors.Store("inserting rule", err)
	}
	return rule, nil
}

// Update replaces an existing rule by ID.
func (s *Store) Update(ctx context.Context, rule types.PricingRule) error {
	conditions, actions, err := marshalRuleParts(rule)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE pricing_rules
		 SET type = $2, name = $3, description = $4, conditions = $5, actions = $6,
		     priority = $7, is_active = $8, is_editable = $9,
		     valid_from = $10, valid_until = $11, updated_at = now()
		 WHERE id = $1`,
		rule.ID, string(rule.Type), rule.Name, rule.Description,
		conditions, actions, rule.Priority, rule.IsActive, rule.IsEditable,
		rule.ValidFrom, rule.ValidUntil)
	if err != nil {
		return errors.Store("updating rule", err)
	}
	return requireRowsAffected(res, rule.ID)
}

// Delete removes a rule by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pricing_rules WHERE id = $1`, id)
	if err != nil {
		return errors.Store("deleting rule", err)
	}
	return requireRowsAffected(res, id)
}

// ToggleActive flips a rule's active flag.
func (s *Store) ToggleActive(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pricing_rules SET is_active = NOT is_active, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return errors.Store("toggling rule", err)
	}
	return requireRowsAffected(res, id)
}

// Clone copies a rule under a fresh ID; the copy starts inactive.
func (s *Store) Clone(ctx context.Context, id string) (types.PricingRule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM pricing_rules WHERE id = $1`, id)
	original, err := scanRule(row)
	if err != nil {
		return types.PricingRule{}, err
	}

	original.ID = uuid.NewString()
	original.Name = original.Name + " (copy)"
	original.IsActive = false
	return s.Create(ctx, original)
}

// BulkUpdatePriorities reassigns priorities in one transaction.
func (s *Store) BulkUpdatePriorities(ctx context.Context, priorities map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Store("starting transaction", err)
	}
	defer tx.Rollback()

	for id, priority := range priorities {
		res, err := tx.ExecContext(ctx,
			`UPDATE pricing_rules SET priority = $2, updated_at = now() WHERE id = $1`, id, priority)
		if err != nil {
			return errors.Store("updating priority", err)
		}
		if err := requireRowsAffected(res, id); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Store("committing priorities", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (types.PricingRule, error) {
	var (
		rule           types.PricingRule
		ruleType       string
		conditionsJSON []byte
		actionsJSON    []byte
		validFrom      sql.NullTime
		validUntil     sql.NullTime
	)

	err := row.Scan(&rule.ID, &ruleType, &rule.Name, &rule.Description,
		&conditionsJSON, &actionsJSON, &rule.Priority, &rule.IsActive, &rule.IsEditable,
		&validFrom, &validUntil)
	if err == sql.ErrNoRows {
		return rule, errors.NotFound("pricing rule", "requested id")
	}
	if err != nil {
		return rule, errors.Store("scanning rule", err)
	}

	rule.Type = types.RuleType(ruleType)
	if err := json.Unmarshal(conditionsJSON, &rule.Conditions); err != nil {
		return rule, errors.Store("decoding rule conditions", err)
	}
	if err := json.Unmarshal(actionsJSON, &rule.Actions); err != nil {
		return rule, errors.Store("decoding rule actions", err)
	}
	if validFrom.Valid {
		rule.ValidFrom = &validFrom.Time
	}
	if validUntil.Valid {
		rule.ValidUntil = &validUntil.Time
	}
	return rule, nil
}

func marshalRuleParts(rule types.PricingRule) ([]byte, []byte, error) {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return nil, nil, errors.Store("encoding rule conditions", err)
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return nil, nil, errors.Store("encoding rule actions", err)
	}
	return conditions, actions, nil
}

func requireRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Store("checking affected rows", err)
	}
	if n == 0 {
		return errors.NotFound("pricing rule", id)
	}
	return nil
}
