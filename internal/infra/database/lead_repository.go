package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// Chave do pg_advisory_xact_lock que serializa a alocação de posição na fila.
const queuePositionLockKey int64 = 0x4c454144

const leadColumns = `id, client_name, client_email, client_phone, product_id, message,
	status, assigned_to, queue_position, priority, assigned_at, created_at, updated_at`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l             entity.Lead
		phone         sql.NullString
		productID     sql.NullString
		message       sql.NullString
		assignedTo    sql.NullString
		queuePosition sql.NullInt64
		assignedAt    sql.NullTime
	)
	err := row.Scan(
		&l.ID,
		&l.ClientName,
		&l.ClientEmail,
		&phone,
		&productID,
		&message,
		&l.Status,
		&assignedTo,
		&queuePosition,
		&l.Priority,
		&assignedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.ClientPhone = phone.String
	l.ProductID = productID.String
	l.Message = message.String
	if assignedTo.Valid {
		l.AssignedTo = &assignedTo.String
	}
	if queuePosition.Valid {
		pos := int(queuePosition.Int64)
		l.QueuePosition = &pos
	}
	if assignedAt.Valid {
		l.AssignedAt = &assignedAt.Time
	}
	return &l, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (id, client_name, client_email, client_phone, product_id, message,
			status, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.ClientName,
		lead.ClientEmail,
		nullString(lead.ClientPhone),
		nullString(lead.ProductID),
		nullString(lead.Message),
		lead.Status,
		lead.Priority,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("erro ao inserir lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar lead %s: %w", id, err)
	}
	return lead, nil
}

func (r *LeadRepository) FindMany(ctx context.Context, filter entity.LeadFilter, sort entity.LeadSort) ([]*entity.Lead, error) {
	where, args := whereClause(filter, 1)
	query := `SELECT ` + leadColumns + ` FROM leads` + where + orderBy(sort)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar leads: %w", err)
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) CountWhere(ctx context.Context, filter entity.LeadFilter) (int, error) {
	where, args := whereClause(filter, 1)
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("erro ao contar leads: %w", err)
	}
	return n, nil
}

// UpdateFields aplica o update num único UPDATE ... WHERE com os guards, então
// a checagem e a escrita são atômicas. Nenhuma linha afetada vira
// ErrLeadNotFound ou ErrLeadConflict.
func (r *LeadRepository) UpdateFields(ctx context.Context, id string, u entity.LeadUpdate) (*entity.Lead, error) {
	query, args := updateQuery(id, u)

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.missOrConflict(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao atualizar lead %s: %w", id, err)
	}
	return lead, nil
}

func updateQuery(id string, u entity.LeadUpdate) (string, []any) {
	var (
		sets []string
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if u.Status != nil {
		sets = append(sets, "status = "+arg(string(*u.Status)))
	}
	switch {
	case u.ClearAssignedTo:
		sets = append(sets, "assigned_to = NULL")
	case u.AssignedTo != nil:
		sets = append(sets, "assigned_to = "+arg(*u.AssignedTo))
	}
	switch {
	case u.ClearAssignedAt:
		sets = append(sets, "assigned_at = NULL")
	case u.AssignedAt != nil:
		sets = append(sets, "assigned_at = "+arg(*u.AssignedAt))
	}
	switch {
	case u.ClearQueuePosition:
		sets = append(sets, "queue_position = NULL")
	case u.QueuePosition != nil:
		sets = append(sets, "queue_position = "+arg(*u.QueuePosition))
	}
	sets = append(sets, "updated_at = NOW()")

	conds := []string{"id = " + arg(id)}
	if len(u.IfStatusIn) > 0 {
		conds = append(conds, "status = ANY("+arg(pq.Array(statusStrings(u.IfStatusIn)))+")")
	}
	if u.IfAssignedTo != nil {
		conds = append(conds, "assigned_to = "+arg(*u.IfAssignedTo))
	}

	query := `UPDATE leads SET ` + strings.Join(sets, ", ") +
		` WHERE ` + strings.Join(conds, " AND ") +
		` RETURNING ` + leadColumns
	return query, args
}

func (r *LeadRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("erro ao verificar lead %s: %w", id, err)
	}
	if !exists {
		return entity.ErrLeadNotFound
	}
	return entity.ErrLeadConflict
}

// AssignQueuePosition pega o advisory lock da transação antes de ler o max,
// então dois enfileiramentos simultâneos nunca calculam a mesma posição.
func (r *LeadRepository) AssignQueuePosition(ctx context.Context, leadID string) (*entity.Lead, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("erro ao abrir transação: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, queuePositionLockKey); err != nil {
		return nil, false, fmt.Errorf("erro ao travar fila: %w", err)
	}

	lead, err := scanLead(tx.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, leadID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("erro ao buscar lead %s: %w", leadID, err)
	}

	if lead.Status != entity.LeadStatusPending {
		return nil, false, entity.ErrLeadConflict
	}
	if lead.QueuePosition != nil {
		return lead, false, nil
	}

	var next int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(queue_position), 0) + 1
		FROM leads
		WHERE status = 'pending' AND queue_position IS NOT NULL
	`).Scan(&next)
	if err != nil {
		return nil, false, fmt.Errorf("erro ao calcular posição na fila: %w", err)
	}

	lead, err = scanLead(tx.QueryRowContext(ctx,
		`UPDATE leads SET queue_position = $1, updated_at = NOW() WHERE id = $2 RETURNING `+leadColumns,
		next, leadID))
	if err != nil {
		return nil, false, fmt.Errorf("erro ao gravar posição na fila: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("erro ao confirmar posição na fila: %w", err)
	}
	return lead, true, nil
}

func whereClause(f entity.LeadFilter, start int) (string, []any) {
	var (
		conds []string
		args  []any
	)
	n := start
	if len(f.Statuses) > 0 {
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", n))
		args = append(args, pq.Array(statusStrings(f.Statuses)))
		n++
	}
	if f.AssignedTo != "" {
		conds = append(conds, fmt.Sprintf("assigned_to = $%d", n))
		args = append(args, f.AssignedTo)
		n++
	}
	if f.OnlyQueued {
		conds = append(conds, "status = 'pending' AND queue_position IS NOT NULL")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(s entity.LeadSort) string {
	switch s {
	case entity.SortQueueOrder:
		return " ORDER BY priority DESC, queue_position ASC, created_at ASC, id ASC"
	case entity.SortCreatedAtAsc:
		return " ORDER BY created_at ASC, id ASC"
	}
	return ""
}

func statusStrings(list []entity.LeadStatus) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = string(s)
	}
	return out
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
