package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ApplyDDL выполняет операторы по порядку. Ожидается idempotent DDL
// (create ... if not exists); "уже существует" пропускаем.
func (db *DB) ApplyDDL(ctx context.Context, stmts []string, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	return db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		for _, stmt := range stmts {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				// duplicate_object (42710)
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "42710" {
					log.Info("DDL skipped (already exists)", zap.String("constraint", pgErr.ConstraintName))
					continue
				}
				e := strings.ToLower(err.Error())
				if strings.Contains(e, "already exists") {
					log.Info("DDL skipped (already exists)", zap.Error(err))
					continue
				}
				return fmt.Errorf("DDL apply failed: %w", err)
			}
		}
		return nil
	})
}
