package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aeroconcept/sizer/internal/config"
	"github.com/aeroconcept/sizer/internal/mission"
	"github.com/aeroconcept/sizer/internal/sizing"
	"github.com/aeroconcept/sizer/pkg/logger"
)

// ErrNotFound is returned when the requested design does not exist.
var ErrNotFound = errors.New("design not found")

// DesignSummary is the list-view projection of a persisted design.
type DesignSummary struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	TakeoffWeight float64   `json:"takeoff_weight"`
	WingArea      float64   `json:"wing_area"`
	MaxThrust     float64   `json:"max_thrust"`
	FuelFraction  float64   `json:"fuel_fraction"`
	Converged     bool      `json:"converged"`
	Iterations    int       `json:"iterations"`
}

// DesignRecord is a full persisted design: the submitted case plus the
// converged result including constraint curves.
type DesignRecord struct {
	DesignSummary
	Case   config.DesignCase `json:"case"`
	Result sizing.Result     `json:"result"`
}

// ConstraintCurves is the plotting payload for one design.
type ConstraintCurves struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	WingLoadings []float64        `json:"wing_loadings"`
	Envelope     mission.Curve    `json:"envelope"`
	Segments     []mission.Result `json:"segments"`
	DesignWToS   float64          `json:"design_w_to_s"`
	DesignTToW   float64          `json:"design_t_to_w"`
}

// DesignStorage is a SQLite-based storage for sized designs
type DesignStorage struct {
	db             *sql.DB
	logger         *logger.Logger
	maxCurvePoints int
}

// NewDesignStorage creates a new SQLite-based design storage
func NewDesignStorage(dbPath string, maxCurvePoints int, log *logger.Logger) (*DesignStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &DesignStorage{
		db:             db,
		logger:         storageLogger,
		maxCurvePoints: maxCurvePoints,
	}, nil
}

// Close closes the database connection
func (s *DesignStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS designs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			takeoff_weight REAL,
			wing_area REAL,
			max_thrust REAL,
			fuel_fraction REAL,
			converged INTEGER DEFAULT 0,
			iterations INTEGER DEFAULT 0,
			case_json TEXT NOT NULL,
			result_json TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create designs table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_designs_name ON designs(name)`)
	if err != nil {
		return fmt.Errorf("failed to create designs name index: %w", err)
	}
	return nil
}

// Save persists a sized design and returns its row ID.
func (s *DesignStorage) Save(dc *config.DesignCase, res *sizing.Result) (int64, error) {
	caseJSON, err := json.Marshal(dc)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal design case: %w", err)
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal sizing result: %w", err)
	}

	row, err := s.db.Exec(`
		INSERT INTO designs (name, takeoff_weight, wing_area, max_thrust, fuel_fraction, converged, iterations, case_json, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dc.Name,
		res.TakeoffWeight,
		res.WingArea,
		res.MaxThrustPerEngine,
		res.FuelFraction,
		boolToInt(res.Converged),
		res.Iterations,
		string(caseJSON),
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert design: %w", err)
	}
	id, err := row.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get design ID: %w", err)
	}

	s.logger.Debug("Saved design",
		logger.Int64("id", id),
		logger.String("name", dc.Name),
		logger.Float("w_to", res.TakeoffWeight))
	return id, nil
}

// List returns summaries of all persisted designs, newest first.
func (s *DesignStorage) List() ([]DesignSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, name, created_at, takeoff_weight, wing_area, max_thrust, fuel_fraction, converged, iterations
		FROM designs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query designs: %w", err)
	}
	defer rows.Close()

	var out []DesignSummary
	for rows.Next() {
		var d DesignSummary
		var converged int
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.TakeoffWeight, &d.WingArea,
			&d.MaxThrust, &d.FuelFraction, &converged, &d.Iterations); err != nil {
			return nil, fmt.Errorf("failed to scan design row: %w", err)
		}
		d.Converged = converged != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// Get returns one full design record by ID.
func (s *DesignStorage) Get(id int64) (*DesignRecord, error) {
	var rec DesignRecord
	var converged int
	var caseJSON, resultJSON string

	err := s.db.QueryRow(`
		SELECT id, name, created_at, takeoff_weight, wing_area, max_thrust, fuel_fraction, converged, iterations, case_json, result_json
		FROM designs WHERE id = ?`, id).Scan(
		&rec.ID, &rec.Name, &rec.CreatedAt, &rec.TakeoffWeight, &rec.WingArea,
		&rec.MaxThrust, &rec.FuelFraction, &converged, &rec.Iterations,
		&caseJSON, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query design %d: %w", id, err)
	}
	rec.Converged = converged != 0

	if err := json.Unmarshal([]byte(caseJSON), &rec.Case); err != nil {
		return nil, fmt.Errorf("failed to unmarshal design case %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sizing result %d: %w", id, err)
	}
	return &rec, nil
}

// Constraints returns the constraint-curve arrays for one design,
// downsampled to the configured point budget.
func (s *DesignStorage) Constraints(id int64) (*ConstraintCurves, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	curves := &ConstraintCurves{
		ID:           rec.ID,
		Name:         rec.Name,
		WingLoadings: downsample(rec.Result.WingLoadings, s.maxCurvePoints),
		Envelope:     downsample(rec.Result.Envelope, s.maxCurvePoints),
		DesignWToS:   rec.Result.WToS,
		DesignTToW:   rec.Result.TToW,
	}
	for _, seg := range rec.Result.Segments {
		seg.Constraint = downsample(seg.Constraint, s.maxCurvePoints)
		curves.Segments = append(curves.Segments, seg)
	}
	return curves, nil
}

// downsample strides a curve down to at most max points, always keeping the
// final point so the sweep endpoints survive.
func downsample(in []float64, max int) []float64 {
	if max <= 0 || len(in) <= max {
		return in
	}
	stride := (len(in) + max - 1) / max
	out := make([]float64, 0, max)
	for i := 0; i < len(in); i += stride {
		out = append(out, in[i])
	}
	if out[len(out)-1] != in[len(in)-1] {
		out = append(out, in[len(in)-1])
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
