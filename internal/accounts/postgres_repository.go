package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by PostgresRepository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores accounts and profiles in PostgreSQL.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("accounts: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetAccount(ctx context.Context, id string) (*Account, error) {
	var (
		acct Account
		role string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id::text, email, role, created_at FROM users WHERE id = $1`, id,
	).Scan(&acct.ID, &acct.Email, &role, &acct.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get account")
	}
	acct.Role = Role(role)
	return &acct, nil
}

func (r *PostgresRepository) UpsertAccount(ctx context.Context, acct *Account) error {
	if err := validateAccount(acct); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role
	`, acct.ID, acct.Email, string(acct.Role))
	if err != nil {
		return fmt.Errorf("accounts: upsert account: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPatient(ctx context.Context, id string) (*PatientProfile, error) {
	var p PatientProfile
	err := r.db.QueryRow(ctx,
		`SELECT id::text, first_name, last_name, phone, address FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Phone, &p.Address)
	if err != nil {
		return nil, notFound(err, "get patient")
	}
	return &p, nil
}

func (r *PostgresRepository) UpsertPatient(ctx context.Context, p *PatientProfile) error {
	if p == nil || p.ID == "" {
		return ErrMissingID
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO patients (id, first_name, last_name, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address
	`, p.ID, p.FirstName, p.LastName, p.Phone, p.Address)
	if err != nil {
		return fmt.Errorf("accounts: upsert patient: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetDoctor(ctx context.Context, id string) (*DoctorProfile, error) {
	var (
		d      DoctorProfile
		status string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id::text, first_name, last_name, phone, email, specialty, license_number,
			titulo_url, cedula_url, certificado_url, status
		FROM doctors WHERE id = $1
	`, id).Scan(&d.ID, &d.FirstName, &d.LastName, &d.Phone, &d.Email, &d.Specialty, &d.LicenseNumber,
		&d.TitlePath, &d.IDCardPath, &d.LicensePath, &status)
	if err != nil {
		return nil, notFound(err, "get doctor")
	}
	d.VerificationStatus = VerificationStatus(status)
	return &d, nil
}

func (r *PostgresRepository) UpsertDoctor(ctx context.Context, d *DoctorProfile) error {
	if err := validateDoctor(d); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO doctors (id, first_name, last_name, phone, email, specialty, license_number,
			titulo_url, cedula_url, certificado_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			specialty = EXCLUDED.specialty,
			license_number = EXCLUDED.license_number,
			titulo_url = EXCLUDED.titulo_url,
			cedula_url = EXCLUDED.cedula_url,
			certificado_url = EXCLUDED.certificado_url,
			status = EXCLUDED.status
	`, d.ID, d.FirstName, d.LastName, d.Phone, d.Email, d.Specialty, d.LicenseNumber,
		d.TitlePath, d.IDCardPath, d.LicensePath, string(d.VerificationStatus))
	if err != nil {
		return fmt.Errorf("accounts: upsert doctor: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetDoctorVerification(ctx context.Context, id string, status VerificationStatus) error {
	if !status.Valid() {
		return ErrInvalidVerification
	}
	tag, err := r.db.Exec(ctx, `UPDATE doctors SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("accounts: set verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("accounts: %s: %w", op, err)
}
