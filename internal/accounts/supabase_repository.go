package accounts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"
)

// RESTClient is the table accessor shared by *supabase.Client and *postgrest.Client.
type RESTClient interface {
	From(table string) *postgrest.QueryBuilder
}

// SupabaseRepository reads and writes the account tables over Supabase REST.
type SupabaseRepository struct {
	client RESTClient
}

// NewSupabaseRepository wraps a Supabase REST client.
func NewSupabaseRepository(client RESTClient) *SupabaseRepository {
	if client == nil {
		panic("accounts: supabase client required")
	}
	return &SupabaseRepository{client: client}
}

func (r *SupabaseRepository) GetAccount(ctx context.Context, id string) (*Account, error) {
	var rows []Account
	if err := r.selectByID("users", id, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (r *SupabaseRepository) UpsertAccount(ctx context.Context, acct *Account) error {
	if err := validateAccount(acct); err != nil {
		return err
	}
	row := map[string]any{"id": acct.ID, "email": acct.Email, "role": acct.Role}
	return r.upsert("users", row)
}

func (r *SupabaseRepository) GetPatient(ctx context.Context, id string) (*PatientProfile, error) {
	var rows []PatientProfile
	if err := r.selectByID("patients", id, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (r *SupabaseRepository) UpsertPatient(ctx context.Context, p *PatientProfile) error {
	if p == nil || p.ID == "" {
		return ErrMissingID
	}
	return r.upsert("patients", p)
}

func (r *SupabaseRepository) GetDoctor(ctx context.Context, id string) (*DoctorProfile, error) {
	var rows []DoctorProfile
	if err := r.selectByID("doctors", id, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (r *SupabaseRepository) UpsertDoctor(ctx context.Context, d *DoctorProfile) error {
	if err := validateDoctor(d); err != nil {
		return err
	}
	return r.upsert("doctors", d)
}

func (r *SupabaseRepository) SetDoctorVerification(ctx context.Context, id string, status VerificationStatus) error {
	if !status.Valid() {
		return ErrInvalidVerification
	}
	data, _, err := r.client.From("doctors").
		Update(map[string]any{"status": status}, "representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("accounts: set verification: %w", err)
	}
	var rows []DoctorProfile
	if err := decode(data, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SupabaseRepository) selectByID(table, id string, dest any) error {
	data, _, err := r.client.From(table).Select("*", "", false).Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("accounts: select %s: %w", table, err)
	}
	return decode(data, dest)
}

func (r *SupabaseRepository) upsert(table string, row any) error {
	if _, _, err := r.client.From(table).Insert(row, true, "id", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("accounts: upsert %s: %w", table, err)
	}
	return nil
}

func decode(data []byte, dest any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("accounts: decode rows: %w", err)
	}
	return nil
}
