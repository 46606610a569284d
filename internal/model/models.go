// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// MODEL SET
// =============================================================================

// DefaultModel is the model selected when nothing else is configured.
const DefaultModel = "llama3.1"

// DefaultModels is the built-in set of selectable models. The backend may
// advertise a different set; this one is the offline fallback.
var DefaultModels = []string{
	"llama3.1",
	"llama3.2",
	"qwen2.5",
	"qwen2.5-coder:14b",
}

// Contains reports whether name is an exact member of models.
func Contains(models []string, name string) bool {
	for _, m := range models {
		if m == name {
			return true
		}
	}
	return false
}
