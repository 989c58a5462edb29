package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"apertura/internal/ownership"
	"apertura/internal/perfil"
	"apertura/internal/signature"
	"apertura/internal/solicitud/models"
	id "apertura/pkg/domain"
	"apertura/pkg/platform/sentinel"
	txcontext "apertura/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists the whole solicitud aggregate as one row: scalar
// lifecycle columns plus JSONB columns for the applicant tree, investor
// profile, documents and signature document. Saving the row saves the
// aggregate atomically.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) queryer(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const selectColumns = `
	id, user_id, aprobada_por, productor_id, tipo, estado,
	titular, perfil, documentos, firma,
	proceso_firma_id, numero_cuenta, motivo_rechazo, motivo_cancelacion,
	created_at, updated_at, aprobada_en, version`

func (s *PostgresStore) Create(ctx context.Context, sol *models.Solicitud) error {
	cols, err := encodeColumns(sol)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO solicitudes (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = s.queryer(ctx).ExecContext(ctx, query,
		uuid.UUID(sol.ID), uuid.UUID(sol.UserID), cols.aprobadaPor, sol.ProductorID, string(sol.Tipo), string(sol.Estado),
		cols.titular, cols.perfil, cols.documentos, cols.firma,
		sol.ProcesoFirmaID, sol.NumeroCuenta, sol.MotivoRechazo, sol.MotivoCancelacion,
		sol.CreatedAt, sol.UpdatedAt, sol.AprobadaEn, sol.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert solicitud: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, solicitudID id.SolicitudID) (*models.Solicitud, error) {
	query := `SELECT ` + selectColumns + ` FROM solicitudes WHERE id = $1`
	sol, err := scanSolicitud(s.queryer(ctx).QueryRowContext(ctx, query, uuid.UUID(solicitudID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find solicitud: %w", err)
	}
	return sol, nil
}

// Execute locks the row with SELECT ... FOR UPDATE, runs validate and apply on
// the loaded aggregate and writes it back guarded by its version. Concurrent
// transitions on the same solicitud queue on the row lock; the second one sees
// the first one's result when it runs validate.
func (s *PostgresStore) Execute(ctx context.Context, solicitudID id.SolicitudID, validate func(*models.Solicitud) error, apply func(*models.Solicitud)) (*models.Solicitud, error) {
	var result *models.Solicitud
	err := txcontext.Run(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		query := `SELECT ` + selectColumns + ` FROM solicitudes WHERE id = $1 FOR UPDATE`
		sol, err := scanSolicitud(tx.QueryRowContext(ctx, query, uuid.UUID(solicitudID)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock solicitud: %w", err)
		}
		if err := validate(sol); err != nil {
			return err
		}
		apply(sol)
		prevVersion := sol.Version
		sol.Version = prevVersion + 1
		if err := update(ctx, tx, sol, prevVersion); err != nil {
			return err
		}
		result = sol
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func update(ctx context.Context, tx *sql.Tx, sol *models.Solicitud, prevVersion int) error {
	cols, err := encodeColumns(sol)
	if err != nil {
		return err
	}
	query := `
		UPDATE solicitudes SET
			aprobada_por = $2, productor_id = $3, estado = $4,
			titular = $5, perfil = $6, documentos = $7, firma = $8,
			proceso_firma_id = $9, numero_cuenta = $10, motivo_rechazo = $11, motivo_cancelacion = $12,
			updated_at = $13, aprobada_en = $14, version = $15
		WHERE id = $1 AND version = $16
	`
	res, err := tx.ExecContext(ctx, query,
		uuid.UUID(sol.ID), cols.aprobadaPor, sol.ProductorID, string(sol.Estado),
		cols.titular, cols.perfil, cols.documentos, cols.firma,
		sol.ProcesoFirmaID, sol.NumeroCuenta, sol.MotivoRechazo, sol.MotivoCancelacion,
		sol.UpdatedAt, sol.AprobadaEn, sol.Version, prevVersion,
	)
	if err != nil {
		return fmt.Errorf("update solicitud: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update solicitud rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrStaleVersion
	}
	return nil
}

// ListIDsByEstado returns the ids in any of the given estados, oldest first.
func (s *PostgresStore) ListIDsByEstado(ctx context.Context, estados ...models.Estado) ([]id.SolicitudID, error) {
	values := make([]string, 0, len(estados))
	for _, e := range estados {
		values = append(values, string(e))
	}
	rows, err := s.queryer(ctx).QueryContext(ctx,
		`SELECT id FROM solicitudes WHERE estado = ANY($1) ORDER BY created_at`, pq.Array(values))
	if err != nil {
		return nil, fmt.Errorf("list solicitudes by estado: %w", err)
	}
	defer rows.Close()

	var ids []id.SolicitudID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan solicitud id: %w", err)
		}
		ids = append(ids, id.SolicitudID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate solicitud ids: %w", err)
	}
	return ids, nil
}

type encodedColumns struct {
	aprobadaPor any
	titular     any
	perfil      any
	documentos  any
	firma       any
}

func encodeColumns(sol *models.Solicitud) (encodedColumns, error) {
	var cols encodedColumns
	var err error
	if sol.AprobadaPor != nil {
		cols.aprobadaPor = uuid.UUID(*sol.AprobadaPor)
	}
	if cols.titular, err = nullableJSON(sol.Titular, sol.Titular == nil); err != nil {
		return cols, fmt.Errorf("encode titular: %w", err)
	}
	if cols.perfil, err = nullableJSON(sol.Perfil, sol.Perfil == nil); err != nil {
		return cols, fmt.Errorf("encode perfil: %w", err)
	}
	documentos := sol.Documentos
	if documentos == nil {
		documentos = []models.Documento{}
	}
	if cols.documentos, err = nullableJSON(documentos, false); err != nil {
		return cols, fmt.Errorf("encode documentos: %w", err)
	}
	if cols.firma, err = nullableJSON(sol.Firma, sol.Firma == nil); err != nil {
		return cols, fmt.Errorf("encode firma: %w", err)
	}
	return cols, nil
}

// nullableJSON encodes v as a JSONB parameter, or SQL NULL when isNil.
func nullableJSON(v any, isNil bool) (any, error) {
	if isNil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSolicitud(row rowScanner) (*models.Solicitud, error) {
	var (
		sol                                   models.Solicitud
		solicitudID, userID                   uuid.UUID
		aprobadaPor                           uuid.NullUUID
		tipo, estado                          string
		titular, perfilRaw, documentos, firma []byte
		aprobadaEn                            sql.NullTime
		createdAt, updatedAt                  time.Time
	)
	err := row.Scan(
		&solicitudID, &userID, &aprobadaPor, &sol.ProductorID, &tipo, &estado,
		&titular, &perfilRaw, &documentos, &firma,
		&sol.ProcesoFirmaID, &sol.NumeroCuenta, &sol.MotivoRechazo, &sol.MotivoCancelacion,
		&createdAt, &updatedAt, &aprobadaEn, &sol.Version,
	)
	if err != nil {
		return nil, err
	}
	sol.ID = id.SolicitudID(solicitudID)
	sol.UserID = id.UserID(userID)
	if aprobadaPor.Valid {
		approver := id.UserID(aprobadaPor.UUID)
		sol.AprobadaPor = &approver
	}
	sol.Tipo = models.Tipo(tipo)
	sol.Estado = models.Estado(estado)
	sol.CreatedAt = createdAt.UTC()
	sol.UpdatedAt = updatedAt.UTC()
	if aprobadaEn.Valid {
		at := aprobadaEn.Time.UTC()
		sol.AprobadaEn = &at
	}

	if len(titular) > 0 {
		sol.Titular = &ownership.Node{}
		if err := json.Unmarshal(titular, sol.Titular); err != nil {
			return nil, fmt.Errorf("decode titular: %w", err)
		}
	}
	if len(perfilRaw) > 0 {
		sol.Perfil = &perfil.Perfil{}
		if err := json.Unmarshal(perfilRaw, sol.Perfil); err != nil {
			return nil, fmt.Errorf("decode perfil: %w", err)
		}
	}
	sol.Documentos = []models.Documento{}
	if len(documentos) > 0 {
		if err := json.Unmarshal(documentos, &sol.Documentos); err != nil {
			return nil, fmt.Errorf("decode documentos: %w", err)
		}
	}
	if len(firma) > 0 {
		sol.Firma = &signature.Document{}
		if err := json.Unmarshal(firma, sol.Firma); err != nil {
			return nil, fmt.Errorf("decode firma: %w", err)
		}
	}
	return &sol, nil
}
