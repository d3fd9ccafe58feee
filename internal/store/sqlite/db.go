package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Migrate runs database migrations. A simple, idempotent set of
// CREATE TABLE / CREATE INDEX statements.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Accounts (provisioned by the REST layer; read-only here)
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			email VARCHAR(100) UNIQUE,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_seen DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		// Refresh-token session records (raw tokens are never stored)
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id INTEGER PRIMARY KEY,
			account_id INTEGER NOT NULL,
			session_id VARCHAR(64) NOT NULL,
			token_digest VARCHAR(255) NOT NULL,
			revoked_at DATETIME DEFAULT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		);`,
		// Conversations
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY,
			kind VARCHAR(10) NOT NULL DEFAULT 'direct',
			name VARCHAR(100),
			avatar_url TEXT,
			description TEXT,
			creator_id INTEGER NOT NULL,
			last_message_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (creator_id) REFERENCES accounts(id)
		);`,
		// Conversation participants; left_at NULL means "active"
		`CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id INTEGER NOT NULL,
			account_id INTEGER NOT NULL,
			role VARCHAR(10) NOT NULL DEFAULT 'member',
			joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			left_at DATETIME DEFAULT NULL,
			cleared_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			is_muted BOOLEAN DEFAULT 0,
			is_pinned BOOLEAN DEFAULT 0,
			is_archived BOOLEAN DEFAULT 0,
			last_read_at DATETIME DEFAULT NULL,
			PRIMARY KEY (conversation_id, account_id),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		);`,
		// Messages; reply_to_message_id is a same-conversation back-reference
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY,
			conversation_id INTEGER NOT NULL,
			sender_id INTEGER NOT NULL,
			content_type VARCHAR(20) NOT NULL DEFAULT 'text',
			content TEXT NOT NULL,
			metadata TEXT DEFAULT NULL,
			reply_to_message_id INTEGER DEFAULT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			edited_at DATETIME DEFAULT NULL,
			deleted_at DATETIME DEFAULT NULL,
			deletion_type VARCHAR(20) DEFAULT NULL,
			is_forwarded BOOLEAN DEFAULT 0,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			FOREIGN KEY (sender_id) REFERENCES accounts(id),
			FOREIGN KEY (reply_to_message_id) REFERENCES messages(id)
		);`,
		// Per-recipient delivery-state facts; append-only
		`CREATE TABLE IF NOT EXISTS message_statuses (
			message_id INTEGER NOT NULL,
			account_id INTEGER NOT NULL,
			status VARCHAR(10) NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (message_id, account_id, status),
			FOREIGN KEY (message_id) REFERENCES messages(id),
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		);`,
		// Emoji reactions; one row per distinct emoji per account per message
		`CREATE TABLE IF NOT EXISTS message_reactions (
			message_id INTEGER NOT NULL,
			account_id INTEGER NOT NULL,
			emoji VARCHAR(32) NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (message_id, account_id, emoji),
			FOREIGN KEY (message_id) REFERENCES messages(id),
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		);`,
		// Delete-for-me suppression rows
		`CREATE TABLE IF NOT EXISTS message_visibility (
			message_id INTEGER NOT NULL,
			account_id INTEGER NOT NULL,
			hidden_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (message_id, account_id),
			FOREIGN KEY (message_id) REFERENCES messages(id),
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts(username);`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_session ON refresh_tokens(session_id, account_id);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_last_message ON conversations(last_message_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_participants_account ON conversation_participants(account_id);`,
		`CREATE INDEX IF NOT EXISTS idx_participants_conv ON conversation_participants(conversation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages(conversation_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_statuses_account ON message_statuses(account_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
