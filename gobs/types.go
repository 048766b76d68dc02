// Copyright (c) 2023 BVK Chaitanya

package gobs

// KeyValue is the unit of a database backup file.
type KeyValue struct {
	Key   string
	Value []byte
}
