package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"smart-scraper/models"
)

type PostgresDB struct {
	DB *sql.DB
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pgDB := &PostgresDB{DB: db}
	if err := pgDB.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pgDB, nil
}

func (p *PostgresDB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS pages (
            id SERIAL PRIMARY KEY,
            url TEXT UNIQUE NOT NULL,
            title TEXT,
            status_code INTEGER,
            content_type TEXT,
            size BIGINT,
            load_time_ms BIGINT,
            links INTEGER,
            scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            hash TEXT,
            importance_score FLOAT DEFAULT 0,
            content_quality FLOAT DEFAULT 0,
            link_density FLOAT DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS records (
            id SERIAL PRIMARY KEY,
            collection TEXT NOT NULL,
            position INTEGER NOT NULL,
            data JSONB NOT NULL,
            saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (collection, position)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_pages_hash ON pages(hash)`,
		`CREATE INDEX IF NOT EXISTS idx_records_collection ON records(collection)`,
	}

	for _, query := range queries {
		if _, err := p.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

func (p *PostgresDB) SavePage(page *models.Page) error {
	query := `
        INSERT INTO pages (url, title, status_code, content_type, size, load_time_ms, links, hash, importance_score, content_quality, link_density)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (url) DO UPDATE SET
            title = EXCLUDED.title,
            status_code = EXCLUDED.status_code,
            content_type = EXCLUDED.content_type,
            size = EXCLUDED.size,
            load_time_ms = EXCLUDED.load_time_ms,
            links = EXCLUDED.links,
            scraped_at = CURRENT_TIMESTAMP,
            hash = EXCLUDED.hash,
            importance_score = EXCLUDED.importance_score,
            content_quality = EXCLUDED.content_quality,
            link_density = EXCLUDED.link_density
        RETURNING id`

	m := page.Metrics
	return p.DB.QueryRow(query,
		page.URL, m.Title, page.StatusCode, page.ContentType,
		page.Size, page.LoadTime, page.Links, m.Hash,
		m.Importance, m.ContentQuality, m.LinkDensity,
	).Scan(&page.ID)
}

// SaveRecords replaces collection with records, keeping their order.
func (p *PostgresDB) SaveRecords(collection string, records []models.Record) error {
	tx, err := p.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM records WHERE collection = $1`, collection); err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO records (collection, position, data) VALUES ($1, $2, $3)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		if _, err := stmt.Exec(collection, i, string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgresDB) LoadRecords(collection string) ([]models.Record, error) {
	rows, err := p.DB.Query(`SELECT data FROM records WHERE collection = $1 ORDER BY position`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var record models.Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (p *PostgresDB) GetPagesByHash(hash string) ([]models.Page, error) {
	rows, err := p.DB.Query(`SELECT id, url, title, hash FROM pages WHERE hash = $1 ORDER BY id LIMIT 5`, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var page models.Page
		if err := rows.Scan(&page.ID, &page.URL, &page.Metrics.Title, &page.Metrics.Hash); err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

func (p *PostgresDB) Close() error {
	return p.DB.Close()
}
