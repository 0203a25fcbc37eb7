package sqlmigrate

// migration is a single forward-only schema step. Steps are never edited
// after release; changing the companion's relational schema means
// appending a new step.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations is the ordered history of the companion database schema.
// Versions are sequential starting from 1; Apply refuses a list that
// breaks the sequence.
var migrations = []migration{
	{
		version: 1,
		name:    "initial accounts and transactions",
		sql: `
CREATE TABLE accounts (
    account_id  TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    kind        TEXT NOT NULL,
    currency    TEXT NOT NULL DEFAULT 'USD',
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE transactions (
    transaction_id TEXT PRIMARY KEY,
    account_id     TEXT NOT NULL,
    posted_at      TEXT NOT NULL,
    amount_cents   INTEGER NOT NULL,
    payee          TEXT NOT NULL DEFAULT '',
    memo           TEXT NOT NULL DEFAULT '',
    created_at     TEXT NOT NULL,
    FOREIGN KEY (account_id) REFERENCES accounts(account_id)
);

CREATE INDEX idx_transactions_account ON transactions(account_id);
CREATE INDEX idx_transactions_posted ON transactions(posted_at);
`,
	},
	{
		version: 2,
		name:    "spending categories",
		sql: `
CREATE TABLE categories (
    category_id TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    parent_id   TEXT,
    created_at  TEXT NOT NULL,
    FOREIGN KEY (parent_id) REFERENCES categories(category_id)
);

ALTER TABLE transactions ADD COLUMN category_id TEXT REFERENCES categories(category_id);

CREATE INDEX idx_transactions_category ON transactions(category_id);
`,
	},
	{
		version: 3,
		name:    "budgets",
		sql: `
CREATE TABLE budgets (
    budget_id    TEXT PRIMARY KEY,
    category_id  TEXT NOT NULL,
    period_unit  TEXT NOT NULL,
    period_length INTEGER NOT NULL DEFAULT 1,
    amount_cents INTEGER NOT NULL,
    created_at   TEXT NOT NULL,
    updated_at   TEXT NOT NULL,
    FOREIGN KEY (category_id) REFERENCES categories(category_id)
);

CREATE UNIQUE INDEX idx_budgets_category_period ON budgets(category_id, period_unit, period_length);
`,
	},
}
