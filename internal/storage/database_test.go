/*
 * This file is part of Skool4Free (https://github.com/Rolandjg/skool4free).
 * Copyright (C) 2025 Skool4Free
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDatabase_OpenPingClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lectures.db")

	db, err := NewDatabase(DatabaseConfig{Path: path})
	if err != nil {
		t.Fatalf("NewDatabase() error: %v", err)
	}

	if db.GetPath() != path {
		t.Errorf("GetPath() = %q, want %q", db.GetPath(), path)
	}
	if err := db.Ping(); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file missing: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestDatabase_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "lectures.db")

	db, err := NewDatabase(DatabaseConfig{Path: path})
	if err != nil {
		t.Fatalf("NewDatabase() error: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}
