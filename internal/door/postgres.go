package door

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to the database at dsn and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Door, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, webhook_url FROM doors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doors := []Door{}
	for rows.Next() {
		d, err := scanDoor(rows)
		if err != nil {
			return nil, err
		}
		doors = append(doors, *d)
	}

	return doors, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Door, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, webhook_url FROM doors WHERE id = $1`, id)

	return scanDoor(row)
}

func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (*Door, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO doors (name, webhook_url) VALUES ($1, $2) RETURNING id, name, webhook_url`,
		in.Name, nullString(in.WebhookURL),
	)

	return scanDoor(row)
}

func (s *PostgresStore) Update(ctx context.Context, id int64, in UpdateInput) (*Door, error) {
	var name sql.NullString
	if in.Name != nil {
		name = sql.NullString{String: *in.Name, Valid: true}
	}

	var webhook sql.NullString
	if in.WebhookURL != nil {
		webhook = nullString(*in.WebhookURL)
	}

	row := s.db.QueryRowContext(ctx,
		`UPDATE doors
		SET name = COALESCE($2, name),
			webhook_url = CASE WHEN $3 THEN $4 ELSE webhook_url END
		WHERE id = $1
		RETURNING id, name, webhook_url`,
		id, name, in.WebhookURL != nil, webhook,
	)

	return scanDoor(row)
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM doors WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoor(row scanner) (*Door, error) {
	var d Door
	var webhook sql.NullString

	if err := row.Scan(&d.ID, &d.Name, &webhook); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	d.WebhookURL = webhook.String

	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
