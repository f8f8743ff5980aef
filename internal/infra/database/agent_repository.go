package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const agentColumns = `id, name, email, role, availability, is_active, created_at, updated_at`

type AgentRepository struct {
	DB *sql.DB
}

func NewAgentRepository(db *sql.DB) *AgentRepository {
	return &AgentRepository{DB: db}
}

func scanAgent(row rowScanner) (*entity.Agent, error) {
	var a entity.Agent
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.Availability, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AgentRepository) Create(ctx context.Context, a *entity.Agent) error {
	query := `
		INSERT INTO agents (id, name, email, role, availability, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.ExecContext(ctx, query,
		a.ID,
		a.Name,
		a.Email,
		a.Role,
		a.Availability,
		a.IsActive,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return entity.ErrAgentAlreadyExists
		}
		log.Printf("Erro crítico no banco: %v", err)
		return err
	}
	return nil
}

func (r *AgentRepository) FindByID(ctx context.Context, id string) (*entity.Agent, error) {
	agent, err := scanAgent(r.DB.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar usuário %s: %w", id, err)
	}
	return agent, nil
}

// FindByRoleAndAvailability mantém a ordem de cadastro; é ela que decide empates na atribuição.
func (r *AgentRepository) FindByRoleAndAvailability(ctx context.Context, role entity.Role, availability entity.Availability) ([]*entity.Agent, error) {
	return r.list(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE role = $1 AND availability = $2 ORDER BY created_at ASC, id ASC`,
		role, availability)
}

func (r *AgentRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.Agent, error) {
	return r.list(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE role = $1 AND is_active ORDER BY created_at ASC, id ASC`,
		role)
}

func (r *AgentRepository) UpdateAvailability(ctx context.Context, id string, availability entity.Availability) (*entity.Agent, error) {
	agent, err := scanAgent(r.DB.QueryRowContext(ctx,
		`UPDATE agents SET availability = $1, updated_at = NOW() WHERE id = $2 RETURNING `+agentColumns,
		availability, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao atualizar disponibilidade de %s: %w", id, err)
	}
	return agent, nil
}

func (r *AgentRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Agent, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar usuários: %w", err)
	}
	defer rows.Close()

	var agents []*entity.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler usuário: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}
