package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		email TEXT UNIQUE,
		phone TEXT,
		password TEXT NOT NULL,
		role TEXT NOT NULL CHECK(role IN ('DEVELOPER', 'COORDINATOR', 'ASSISTANT')),
		active INTEGER DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_number TEXT UNIQUE NOT NULL,
		requester_name TEXT NOT NULL,
		requester_email TEXT NOT NULL,
		requester_phone TEXT,
		department TEXT NOT NULL,
		category TEXT NOT NULL,
		priority TEXT NOT NULL CHECK(priority IN ('low', 'medium', 'high', 'urgent')),
		subject TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT DEFAULT 'open' CHECK(status IN ('open', 'in_progress', 'resolved', 'closed')),
		assigned_to INTEGER,
		attachment TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		resolved_at DATETIME,
		FOREIGN KEY (assigned_to) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id INTEGER NOT NULL,
		user_id INTEGER,
		comment TEXT NOT NULL,
		is_internal INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS status_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id INTEGER NOT NULL,
		user_id INTEGER,
		old_status TEXT,
		new_status TEXT NOT NULL,
		comment TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS response_templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		content TEXT NOT NULL,
		created_by INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (created_by) REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_assigned ON tickets(assigned_to)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_created ON tickets(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_ticket ON comments(ticket_id)`,
}

var defaultTemplates = [][3]string{
	{"Issue Resolved", "resolved", "We identified the problem and applied a fix. Let us know if anything else comes up."},
	{"Waiting On User", "waiting", "We are waiting on your reply to continue working on this request. Please respond to this message."},
	{"Ticket Escalated", "escalation", "Your ticket has been forwarded to the responsible team. You will be notified as soon as there is an update."},
	{"Acknowledged", "informative", "Your request has been registered and work has started. Follow updates through this channel."},
}

// Migrate creates the schema and seeds the default templates plus a bootstrap
// developer account when none exists.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if db == nil {
		logger.Warn("no sqlite handle available; skipping migrations")
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	var templateCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM response_templates`).Scan(&templateCount); err != nil {
		return err
	}
	if templateCount == 0 {
		for _, tpl := range defaultTemplates {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO response_templates (title, category, content) VALUES (?, ?, ?)`,
				tpl[0], tpl[1], tpl[2]); err != nil {
				return err
			}
		}
		logger.Info("seeded default response templates", zap.Int("count", len(defaultTemplates)))
	}

	var devCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE role = 'DEVELOPER'`).Scan(&devCount); err != nil {
		return err
	}
	if devCount == 0 {
		hash, err := auth.HashPassword("Dev@123456", 10)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO users (name, email, password, role) VALUES (?, ?, ?, 'DEVELOPER')`,
			"developer", "dev@helpdesk.local", hash); err != nil {
			return err
		}
		logger.Warn("bootstrap developer account created; change its password",
			zap.String("email", "dev@helpdesk.local"))
	}

	logger.Info("migrations applied")
	return nil
}
