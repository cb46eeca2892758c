package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Money columns are TEXT holding decimal strings; dates are TEXT in YYYY-MM-DD,
// so lexical comparison is date comparison.
const schema = `
CREATE TABLE IF NOT EXISTS members (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    full_name TEXT NOT NULL,
    department TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS roles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS member_roles (
    member_id TEXT NOT NULL,
    role_id INTEGER NOT NULL,
    PRIMARY KEY (member_id, role_id),
    FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE,
    FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS attendance (
    member_id TEXT NOT NULL,
    date TEXT NOT NULL,
    had_breakfast INTEGER NOT NULL,
    had_lunch INTEGER NOT NULL,
    had_dinner INTEGER NOT NULL,
    skip_reason TEXT,
    marked_at INTEGER,
    PRIMARY KEY (member_id, date),
    FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bills (
    id TEXT PRIMARY KEY,
    member_id TEXT NOT NULL,
    period_start TEXT NOT NULL,
    period_end TEXT NOT NULL,
    total_meals INTEGER NOT NULL,
    meal_rate TEXT NOT NULL,
    utility_charge TEXT NOT NULL,
    meal_total TEXT NOT NULL,
    previous_dues TEXT NOT NULL,
    total_amount TEXT NOT NULL,
    amount_paid TEXT NOT NULL,
    paid_at INTEGER,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bill_issues (
    id TEXT PRIMARY KEY,
    member_id TEXT NOT NULL,
    bill_id TEXT NOT NULL,
    description TEXT NOT NULL,
    is_resolved INTEGER NOT NULL DEFAULT 0,
    resolution_notes TEXT,
    created_at INTEGER NOT NULL,
    resolved_at INTEGER,
    FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE,
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_bills_member_period ON bills(member_id, period_start, period_end);
CREATE INDEX IF NOT EXISTS idx_bills_period_start ON bills(period_start);
CREATE INDEX IF NOT EXISTS idx_member_roles_role_id ON member_roles(role_id);
CREATE INDEX IF NOT EXISTS idx_bill_issues_bill_id ON bill_issues(bill_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
