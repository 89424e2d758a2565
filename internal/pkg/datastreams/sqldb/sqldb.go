package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/ohowland/lvnet/internal/pkg/logging"
	"github.com/ohowland/lvnet/internal/pkg/msg"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

// Supported drivers.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
)

const execTimeout = 5 * time.Second

// Handler stores every published calculation in a calculations table and its cables
// in a cable_results table.
type Handler struct {
	mux    *sync.Mutex
	inbox  <-chan msg.Msg
	pid    uuid.UUID
	config config
	logger *zap.Logger
	system msg.Publisher
	stop   chan struct{}
	once   *sync.Once
}

type config struct {
	Driver   string `json:"Driver"`
	Server   string `json:"Server"`
	Port     int    `json:"Port"`
	Username string `json:"Username"`
	Password string `json:"Password"`
	Database string `json:"Database"`
	SSLMode  string `json:"SSLMode"`
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type beginner interface {
	execer
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

func (h Handler) PID() uuid.UUID {
	return h.pid
}

// New reads the handler configuration and subscribes to results.
func New(configPath string, system msg.Publisher, logger *zap.Logger) (Handler, error) {
	jsonConfig, err := os.ReadFile(configPath)
	if err != nil {
		return Handler{}, err
	}
	cfg := config{Driver: MySQL}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return Handler{}, err
	}
	if cfg.Driver != MySQL && cfg.Driver != Postgres {
		return Handler{}, fmt.Errorf("%s: unsupported driver %q", configPath, cfg.Driver)
	}

	pid, err := uuid.NewUUID()
	if err != nil {
		return Handler{}, err
	}

	return Handler{
		mux:    &sync.Mutex{},
		inbox:  system.Subscribe(pid, msg.Result),
		pid:    pid,
		config: cfg,
		logger: logging.OrNop(logger).Named("sqldb"),
		system: system,
		stop:   make(chan struct{}),
		once:   &sync.Once{},
	}, nil
}

// Stop ends Process and drops the subscription.
func (h Handler) Stop() {
	h.once.Do(func() {
		h.system.Unsubscribe(h.pid)
		close(h.stop)
	})
}

// DSN is the data source name of the configured driver.
func (h Handler) DSN() string {
	switch h.config.Driver {
	case Postgres:
		sslMode := h.config.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			h.config.Server, h.config.Port, h.config.Username, h.config.Password, h.config.Database, sslMode)
	default:
		cfg := mysql.NewConfig()
		cfg.User = h.config.Username
		cfg.Passwd = h.config.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(h.config.Server, strconv.Itoa(h.config.Port))
		cfg.DBName = h.config.Database
		cfg.ParseTime = true
		return cfg.FormatDSN()
	}
}

// DB opens the configured database.
func (h Handler) DB() (*sql.DB, error) {
	return sql.Open(h.config.Driver, h.DSN())
}

// Process creates the tables and stores results until stopped.
func (h Handler) Process() error {
	db, err := h.DB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	err = initDBTables(ctx, db, h.config.Driver)
	cancel()
	if err != nil {
		return err
	}

	h.logger.Info("process started", zap.String("driver", h.config.Driver), zap.String("database", h.config.Database))
	h.run(db)
	h.logger.Info("process shutdown")
	return nil
}

func (h Handler) run(db beginner) {
	for {
		select {
		case m, ok := <-h.inbox:
			if !ok {
				return
			}
			res, isResult := m.Payload().(network.CalculationResult)
			if !isResult {
				continue
			}
			if err := h.store(db, uuid.New(), res); err != nil {
				h.logger.Error("update db", zap.Error(err))
			}
		case <-h.stop:
			return
		}
	}
}

func (h Handler) store(db beginner, run uuid.UUID, res network.CalculationResult) error {
	h.mux.Lock()
	defer h.mux.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := insertResult(ctx, tx, h.config.Driver, run, time.Now().UTC(), res); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertResult(ctx context.Context, e execer, driver string, run uuid.UUID, at time.Time, res network.CalculationResult) error {
	_, err := e.ExecContext(ctx, insertStatement(driver, "calculations",
		"id", "computed_at", "scenario", "total_loads_kva", "total_productions_kva",
		"global_losses_kw", "max_voltage_drop_percent", "compliance"),
		run.String(), at, res.Scenario.String(), res.TotalLoadsKVA, res.TotalProductionsKVA,
		res.GlobalLossesKW, res.MaxVoltageDropPercent, string(res.Compliance))
	if err != nil {
		return fmt.Errorf("insert calculation: %w", err)
	}

	stmt := insertStatement(driver, "cable_results",
		"calculation_id", "cable_id", "type_id", "distal_node_id", "current_a",
		"voltage_drop_v", "voltage_drop_percent", "losses_kw", "compliance", "approximate")
	for _, c := range res.Cables {
		_, err := e.ExecContext(ctx, stmt,
			run.String(), c.ID, c.TypeID, c.DistalNodeID, c.CurrentA,
			c.VoltageDropV, c.VoltageDropPercent, c.LossesKW, string(c.Compliance), c.Approximate)
		if err != nil {
			return fmt.Errorf("insert cable %q: %w", c.ID, err)
		}
	}
	return nil
}

// insertStatement builds an INSERT with the placeholder style of driver.
func insertStatement(driver, table string, columns ...string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		if driver == Postgres {
			placeholders[i] = "$" + strconv.Itoa(i+1)
		} else {
			placeholders[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

func tableStatements(driver string) []string {
	timestamp := "TIMESTAMP"
	if driver == MySQL {
		timestamp = "DATETIME(6)"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS calculations(
			id VARCHAR(36) PRIMARY KEY,
			computed_at ` + timestamp + ` NOT NULL,
			scenario VARCHAR(16) NOT NULL,
			total_loads_kva DOUBLE PRECISION,
			total_productions_kva DOUBLE PRECISION,
			global_losses_kw DOUBLE PRECISION,
			max_voltage_drop_percent DOUBLE PRECISION,
			compliance VARCHAR(16) NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS cable_results(
			calculation_id VARCHAR(36) NOT NULL,
			cable_id VARCHAR(128) NOT NULL,
			type_id VARCHAR(128),
			distal_node_id VARCHAR(128),
			current_a DOUBLE PRECISION,
			voltage_drop_v DOUBLE PRECISION,
			voltage_drop_percent DOUBLE PRECISION,
			losses_kw DOUBLE PRECISION,
			compliance VARCHAR(16) NOT NULL,
			approximate BOOLEAN,
			PRIMARY KEY (calculation_id, cable_id))`,
	}
}

func initDBTables(ctx context.Context, e execer, driver string) error {
	for _, stmt := range tableStatements(driver) {
		if _, err := e.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
