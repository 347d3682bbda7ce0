// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build cgo

package store

import (
	_ "github.com/mattn/go-sqlite3" // registers DriverSQLite3
)
