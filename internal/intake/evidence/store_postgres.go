package evidence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"intake/internal/intake/models"
	id "intake/pkg/domain"
	txcontext "intake/pkg/platform/tx"
)

// PostgresStore persists file version history in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed version store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS evidence_files (
	id              UUID PRIMARY KEY,
	application_id  UUID NOT NULL,
	incident_id     UUID NOT NULL,
	slot_code       TEXT NOT NULL,
	version         INT  NOT NULL,
	system_filename TEXT NOT NULL,
	original_name   TEXT NOT NULL,
	size_bytes      BIGINT NOT NULL,
	uploaded_at     TIMESTAMPTZ NOT NULL,
	is_active       BOOLEAN NOT NULL,
	UNIQUE (application_id, incident_id, slot_code, version)
);
CREATE INDEX IF NOT EXISTS idx_evidence_files_slot
	ON evidence_files (application_id, incident_id, slot_code);
`

// Migrate creates the backing table when absent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string, nf NewFile) (models.UploadedFile, error) {
	// Join an ambient transaction when the caller started one; the caller
	// owns its commit.
	if ambient, ok := txcontext.From(ctx); ok {
		return s.record(ctx, ambient, appID, incidentID, slotCode, nf)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	file, err := s.record(ctx, tx, appID, incidentID, slotCode, nf)
	if err != nil {
		return models.UploadedFile{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.UploadedFile{}, fmt.Errorf("commit: %w", err)
	}
	return file, nil
}

func (s *PostgresStore) record(ctx context.Context, tx *sql.Tx, appID id.ApplicationID, incidentID id.IncidentID, slotCode string, nf NewFile) (models.UploadedFile, error) {
	// Lock the latest version row so concurrent writers serialize on the
	// slot. The UNIQUE constraint backstops version assignment either way.
	var version int
	err := tx.QueryRowContext(ctx, `
		SELECT version
		FROM evidence_files
		WHERE application_id = $1 AND incident_id = $2 AND slot_code = $3
		ORDER BY version DESC
		LIMIT 1
		FOR UPDATE`,
		uuid.UUID(appID), uuid.UUID(incidentID), slotCode,
	).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return models.UploadedFile{}, fmt.Errorf("latest version: %w", err)
	}
	version++

	if _, err := tx.ExecContext(ctx, `
		UPDATE evidence_files SET is_active = FALSE
		WHERE application_id = $1 AND incident_id = $2 AND slot_code = $3 AND is_active`,
		uuid.UUID(appID), uuid.UUID(incidentID), slotCode,
	); err != nil {
		return models.UploadedFile{}, fmt.Errorf("deactivate prior version: %w", err)
	}

	file := models.UploadedFile{
		ID:             id.NewFileID(),
		IncidentID:     incidentID,
		SlotCode:       slotCode,
		Version:        version,
		SystemFilename: models.SystemFilename(appID, incidentID, slotCode, version, nf.Extension),
		OriginalName:   nf.OriginalName,
		Size:           nf.Size,
		UploadedAt:     nf.UploadedAt,
		Active:         true,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO evidence_files
			(id, application_id, incident_id, slot_code, version, system_filename, original_name, size_bytes, uploaded_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)`,
		uuid.UUID(file.ID), uuid.UUID(appID), uuid.UUID(incidentID), slotCode,
		file.Version, file.SystemFilename, file.OriginalName, file.Size, file.UploadedAt,
	); err != nil {
		return models.UploadedFile{}, fmt.Errorf("insert version: %w", err)
	}
	return file, nil
}

// queryer is the read surface shared by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) reader(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) List(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string) ([]models.UploadedFile, error) {
	rows, err := s.reader(ctx).QueryContext(ctx, `
		SELECT id, incident_id, slot_code, version, system_filename, original_name, size_bytes, uploaded_at, is_active
		FROM evidence_files
		WHERE application_id = $1 AND incident_id = $2 AND slot_code = $3
		ORDER BY version`,
		uuid.UUID(appID), uuid.UUID(incidentID), slotCode,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var files []models.UploadedFile
	for rows.Next() {
		var f models.UploadedFile
		var fileID, incID uuid.UUID
		if err := rows.Scan(&fileID, &incID, &f.SlotCode, &f.Version, &f.SystemFilename, &f.OriginalName, &f.Size, &f.UploadedAt, &f.Active); err != nil {
			return nil, fmt.Errorf("scan version row: %w", err)
		}
		f.ID = id.FileID(fileID)
		f.IncidentID = id.IncidentID(incID)
		files = append(files, f)
	}
	return files, rows.Err()
}
