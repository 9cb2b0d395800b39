package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported record store drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrDuplicate is returned when an insert violates a unique key
// (chat ID or registration code already registered).
var ErrDuplicate = errors.New("record already exists")

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// RecordStore keeps user profiles and work orders in a relational database.
type RecordStore struct {
	db     *sqlx.DB
	driver string
}

// OpenRecordStore connects to the database, checks the connection and applies the schema.
func OpenRecordStore(ctx context.Context, driver, dsn string) (*RecordStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single connection keeps SQLite writes serialised and ":memory:" databases shared.
		db.SetMaxOpenConns(1)
	}
	store, err := NewRecordStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewRecordStore wraps an open connection and applies the schema for its driver.
func NewRecordStore(ctx context.Context, db *sqlx.DB) (*RecordStore, error) {
	s := &RecordStore{db: db, driver: db.DriverName()}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	logrus.Infof("Record store ready (driver %s)", s.driver)
	return s, nil
}

// migrate executes the embedded schema statement by statement,
// so no driver needs multi-statement support.
func (s *RecordStore) migrate(ctx context.Context) error {
	data, err := migrations.ReadFile("migrations/" + s.driver + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for driver %s: %w", s.driver, err)
	}
	for _, stmt := range strings.Split(string(data), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err = s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// FindUserByOwner returns the profile registered for the chat.
// A missing profile is reported as (nil, nil); any error means the lookup itself failed.
func (s *RecordStore) FindUserByOwner(ctx context.Context, chatID int64) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.GetContext(ctx, &profile, s.db.Rebind(`
		SELECT chat_id, name, role, level, department, registration_code
		FROM users
		WHERE chat_id = ?`), chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", chatID, err)
	}
	return &profile, nil
}

// RegistrationCodeExists reports whether the registration code is already taken.
func (s *RecordStore) RegistrationCodeExists(ctx context.Context, code string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(*) FROM users WHERE registration_code = ?`), code)
	if err != nil {
		return false, fmt.Errorf("check registration code: %w", err)
	}
	return count > 0, nil
}

// CreateUserProfile inserts a new profile. ErrDuplicate is returned when the chat is
// already registered or the registration code is in use.
func (s *RecordStore) CreateUserProfile(ctx context.Context, profile models.UserProfile) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (chat_id, name, role, level, department, registration_code)
		VALUES (:chat_id, :name, :role, :level, :department, :registration_code)`, profile)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("create user %d: %w", profile.ChatID, ErrDuplicate)
		}
		return fmt.Errorf("create user %d: %w", profile.ChatID, err)
	}
	logrus.Infof("User %s (chat %d) registered", profile.Name, profile.ChatID)
	return nil
}

// CreateWorkOrder inserts an open work order and returns its ID.
func (s *RecordStore) CreateWorkOrder(ctx context.Context, order models.WorkOrder) (int64, error) {
	const insert = `
		INSERT INTO work_orders (owner_id, machine_number, machine_model, maintenance_type, problem_description, opened_at, part_replaced)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	args := []any{order.OwnerID, order.MachineNumber, order.MachineModel, string(order.MaintenanceType),
		order.ProblemDescription, order.OpenedAt.UTC(), false}

	var id int64
	if s.driver == DriverPostgres {
		if err := s.db.QueryRowxContext(ctx, s.db.Rebind(insert+` RETURNING id`), args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("create work order: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx, s.db.Rebind(insert), args...)
		if err != nil {
			return 0, fmt.Errorf("create work order: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("create work order: last insert id: %w", err)
		}
	}
	logrus.Infof("Work order %d created by chat %d", id, order.OwnerID)
	return id, nil
}

// FindOpenOrdersByOwner lists the owner's work orders that are not closed yet.
func (s *RecordStore) FindOpenOrdersByOwner(ctx context.Context, ownerID int64) ([]models.OpenOrderRef, error) {
	var orders []models.OpenOrderRef
	err := s.db.SelectContext(ctx, &orders, s.db.Rebind(`
		SELECT id, machine_number
		FROM work_orders
		WHERE owner_id = ? AND closed_at IS NULL
		ORDER BY id`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("find open orders of %d: %w", ownerID, err)
	}
	return orders, nil
}

// CloseWorkOrder closes an open work order owned by ownerID.
// It returns false when no such open order belongs to the owner, without telling the
// two cases apart.
func (s *RecordStore) CloseWorkOrder(ctx context.Context, orderID, ownerID int64, fields models.ClosingFields) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE work_orders
		SET closed_at = ?, solution_applied = ?, part_replaced = ?, part_description = ?,
		    part_tag = ?, service_completed = ?, notes = ?
		WHERE id = ? AND owner_id = ? AND closed_at IS NULL`),
		fields.ClosedAt.UTC(), fields.SolutionApplied, fields.PartReplaced, fields.PartDescription,
		fields.PartTag, fields.ServiceCompleted, fields.Notes,
		orderID, ownerID)
	if err != nil {
		return false, fmt.Errorf("close work order %d: %w", orderID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close work order %d: rows affected: %w", orderID, err)
	}
	if affected == 0 {
		logrus.WithFields(logrus.Fields{"orderID": orderID, "chatID": ownerID}).Warn("Close rejected: order not found, not owned or already closed")
		return false, nil
	}
	logrus.Infof("Work order %d closed by chat %d", orderID, ownerID)
	return true, nil
}

// FindOrdersByOwnerAndDateRange returns the owner's work orders opened in [start, end).
func (s *RecordStore) FindOrdersByOwnerAndDateRange(ctx context.Context, ownerID int64, start, end time.Time) ([]models.WorkOrder, error) {
	var orders []models.WorkOrder
	err := s.db.SelectContext(ctx, &orders, s.db.Rebind(`
		SELECT id, owner_id, machine_number, machine_model, maintenance_type, problem_description,
		       opened_at, closed_at, solution_applied, part_replaced, part_description, part_tag,
		       service_completed, notes
		FROM work_orders
		WHERE owner_id = ? AND opened_at >= ? AND opened_at < ?
		ORDER BY opened_at, id`), ownerID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("find orders of %d in range: %w", ownerID, err)
	}
	return orders, nil
}

// isDuplicate recognises unique key violations of every supported driver.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
