package species

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store provides read-only access to the species knowledge base held in
// a sqlite database produced by the upstream trait pipeline.
type Store struct {
	db       *sql.DB
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// NewStore opens the knowledge-base database.
func NewStore(dbPath string) (*Store, error) {
	connStr := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open species database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping species database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &Store{
		db:       db,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := store.initPreparedStatements(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Species store opened", "path", dbPath)

	return store, nil
}

// Schema is the expected shape of the upstream export. The pipeline owns
// the database; this is published for fixtures and validation only.
const Schema = `CREATE TABLE IF NOT EXISTS species (
	id TEXT PRIMARY KEY,
	scientific_name TEXT,
	family TEXT,
	genus TEXT,
	height_m REAL NOT NULL DEFAULT 0,
	growth_form TEXT,
	csr_c REAL NOT NULL DEFAULT 0,
	csr_s REAL NOT NULL DEFAULT 0,
	csr_r REAL NOT NULL DEFAULT 0,
	light_preference TEXT,
	nitrogen_fixer BOOLEAN NOT NULL DEFAULT FALSE,
	nitrogen_confidence REAL NOT NULL DEFAULT 0,
	soil_ph_min REAL NOT NULL DEFAULT 0,
	soil_ph_max REAL NOT NULL DEFAULT 0,
	temp_min_c REAL NOT NULL DEFAULT 0,
	temp_max_c REAL NOT NULL DEFAULT 0,
	precip_min_mm REAL NOT NULL DEFAULT 0,
	precip_max_mm REAL NOT NULL DEFAULT 0,
	koppen_codes TEXT,
	phylo_coords TEXT,
	pathogenic_fungi TEXT,
	mycorrhizal_fungi TEXT,
	endophytic_fungi TEXT,
	saprotrophic_fungi TEXT,
	mycoparasite_fungi TEXT,
	entomopathogenic_fungi TEXT,
	herbivores TEXT,
	pollinators TEXT,
	nonfungal_pathogens TEXT
);
CREATE INDEX IF NOT EXISTS idx_species_name ON species(scientific_name);
CREATE INDEX IF NOT EXISTS idx_species_family ON species(family);`

// speciesColumns is the shared select list; scanRecord must match it.
const speciesColumns = `id, scientific_name, family, genus, height_m, growth_form,
	csr_c, csr_s, csr_r, light_preference,
	nitrogen_fixer, nitrogen_confidence, soil_ph_min, soil_ph_max,
	temp_min_c, temp_max_c, precip_min_mm, precip_max_mm,
	koppen_codes, phylo_coords, pathogenic_fungi,
	mycorrhizal_fungi, endophytic_fungi, saprotrophic_fungi,
	mycoparasite_fungi, entomopathogenic_fungi,
	herbivores, pollinators, nonfungal_pathogens`

func (s *Store) initPreparedStatements() error {
	statements := map[string]string{
		"get_species":    `SELECT ` + speciesColumns + ` FROM species WHERE id = ?`,
		"search_species": `SELECT ` + speciesColumns + ` FROM species WHERE scientific_name LIKE ? ORDER BY scientific_name LIMIT ?`,
		"list_species":   `SELECT ` + speciesColumns + ` FROM species ORDER BY id`,
		"count_species":  `SELECT COUNT(*) FROM species`,
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for name, query := range statements {
		stmt, err := s.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		s.prepared[name] = stmt
	}

	return nil
}

func (s *Store) stmt(name string) (*sql.Stmt, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stmt, exists := s.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}
	return stmt, nil
}

// Get looks up one species by id. The second return is false when no
// record exists.
func (s *Store) Get(ctx context.Context, id string) (*Species, bool, error) {
	stmt, err := s.stmt("get_species")
	if err != nil {
		return nil, false, err
	}

	sp, err := scanRecord(stmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load species %s: %w", id, err)
	}
	return sp, true, nil
}

// Search returns species whose scientific name matches the query.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Species, error) {
	stmt, err := s.stmt("search_species")
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	rows, err := stmt.QueryContext(ctx, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("species search failed: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// LoadAll reads the entire knowledge base for in-memory use.
func (s *Store) LoadAll(ctx context.Context) ([]Species, error) {
	stmt, err := s.stmt("list_species")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list species: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// LoadKnowledgeBase loads every record and builds the immutable view.
func (s *Store) LoadKnowledgeBase(ctx context.Context) (*KnowledgeBase, error) {
	start := time.Now()

	records, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	kb, err := NewKnowledgeBase(records)
	if err != nil {
		return nil, err
	}

	slog.Info("Knowledge base loaded",
		"species", kb.Len(),
		"families", len(kb.Families()),
		"checksum", kb.Checksum(),
		"duration_ms", time.Since(start).Milliseconds())

	return kb, nil
}

// Count returns the number of species records.
func (s *Store) Count(ctx context.Context) (int, error) {
	stmt, err := s.stmt("count_species")
	if err != nil {
		return 0, err
	}

	var n int
	if err := stmt.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count species: %w", err)
	}
	return n, nil
}

// Close releases prepared statements and the connection.
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for name, stmt := range s.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}
	s.prepared = make(map[string]*sql.Stmt)

	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func collectRecords(rows *sql.Rows) ([]Species, error) {
	var out []Species
	for rows.Next() {
		sp, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sp)
	}
	return out, rows.Err()
}

// scanRecord decodes one row. Interaction lists are stored as JSON text
// columns; NULL or empty columns decode to absent lists, which downstream
// metrics treat as contributing zero.
func scanRecord(row rowScanner) (*Species, error) {
	var (
		sp                                  Species
		koppenJSON, coordsJSON              sql.NullString
		pathogenicJSON                      sql.NullString
		mycoJSON, endoJSON, saproJSON       sql.NullString
		mycopJSON, entoJSON                 sql.NullString
		herbJSON, pollJSON, nonFungalJSON   sql.NullString
		light                               sql.NullString
		growthForm, family, genus, sciName  sql.NullString
	)

	err := row.Scan(
		&sp.ID, &sciName, &family, &genus, &sp.HeightM, &growthForm,
		&sp.Strategy.C, &sp.Strategy.S, &sp.Strategy.R, &light,
		&sp.NitrogenFixer, &sp.NitrogenConfidence, &sp.SoilPHMin, &sp.SoilPHMax,
		&sp.TempMinC, &sp.TempMaxC, &sp.PrecipMinMM, &sp.PrecipMaxMM,
		&koppenJSON, &coordsJSON, &pathogenicJSON,
		&mycoJSON, &endoJSON, &saproJSON,
		&mycopJSON, &entoJSON,
		&herbJSON, &pollJSON, &nonFungalJSON,
	)
	if err != nil {
		return nil, err
	}

	sp.ScientificName = sciName.String
	sp.Family = family.String
	sp.Genus = genus.String
	sp.GrowthForm = growthForm.String
	sp.LightPreference = LightPreference(light.String)

	var koppen []string
	if err := decodeJSONColumn(koppenJSON, &koppen); err != nil {
		return nil, fmt.Errorf("species %s: bad koppen_codes: %w", sp.ID, err)
	}
	sp.Tiers = TiersFromKoppen(koppen)

	if err := decodeJSONColumn(coordsJSON, &sp.PhyloCoords); err != nil {
		return nil, fmt.Errorf("species %s: bad phylo_coords: %w", sp.ID, err)
	}

	if err := decodeJSONColumn(pathogenicJSON, &sp.PathogenicFungi); err != nil {
		return nil, fmt.Errorf("species %s: bad pathogenic_fungi: %w", sp.ID, err)
	}

	sets := []struct {
		col  sql.NullString
		dest *Set
		name string
	}{
		{mycoJSON, &sp.MycorrhizalFungi, "mycorrhizal_fungi"},
		{endoJSON, &sp.EndophyticFungi, "endophytic_fungi"},
		{saproJSON, &sp.SaprotrophicFungi, "saprotrophic_fungi"},
		{mycopJSON, &sp.MycoparasiteFungi, "mycoparasite_fungi"},
		{entoJSON, &sp.EntomopathogenicFungi, "entomopathogenic_fungi"},
		{herbJSON, &sp.Herbivores, "herbivores"},
		{pollJSON, &sp.Pollinators, "pollinators"},
		{nonFungalJSON, &sp.NonFungalPathogens, "nonfungal_pathogens"},
	}
	for _, c := range sets {
		var names []string
		if err := decodeJSONColumn(c.col, &names); err != nil {
			return nil, fmt.Errorf("species %s: bad %s: %w", sp.ID, c.name, err)
		}
		*c.dest = NewSet(names...)
	}

	return &sp, nil
}

func decodeJSONColumn(col sql.NullString, dest any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dest)
}
