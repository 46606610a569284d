// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat record persistence for the rigchat backend.
//
// A chat record is a conversation history saved under a user-chosen name as
// a pretty-printed JSON array of {role, content} objects, one file per
// record, all in one directory.
//
// # Key Types
//
//   - RecordStore: Directory-backed store with save, load, list, rename and delete
//
// # Usage
//
//	store, err := storage.NewRecordStore("chat_records", logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	_ = store.Watch()
//	err = store.Save("standup.json", history)
package storage
