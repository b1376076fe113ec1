package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionSlotKey returns the redis key holding the persisted session for a persist key
func (r *CacheKeyStruct) SessionSlotKey(persistKey string) string {
	return fmt.Sprintf("quiz:%s:session", persistKey)
}

// SessionFileName returns the file name of the persisted session inside DATA_DIR
func (r *CacheKeyStruct) SessionFileName(persistKey string) string {
	return fmt.Sprintf("%s.session.json", persistKey)
}

var CacheKey = NewCacheKeyStruct()
