// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package utils provides utility functions for v2.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureOxyDir ensures the .oxy directory exists at the given base path.
// If basePath is empty or ".", it creates ./.oxy in the current directory.
// Otherwise, it creates {basePath}/.oxy.
//
// Callers in this module:
// - pkg/config zero-config: a SQLite database file placed under .oxy
// - pkg/vector chromem provider: a persistence path under .oxy (e.g. .oxy/vectors/)
//
// Returns the full path to the .oxy directory and any error.
func EnsureOxyDir(basePath string) (string, error) {
	var oxyDir string
	if basePath == "" || basePath == "." {
		// Root-level .oxy directory (for tasks.db, etc.)
		oxyDir = ".oxy"
	} else {
		// Source-specific .oxy directory (for document stores, checkpoints)
		oxyDir = filepath.Join(basePath, ".oxy")
	}

	if err := os.MkdirAll(oxyDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create .oxy directory at '%s': %w", oxyDir, err)
	}

	return oxyDir, nil
}
