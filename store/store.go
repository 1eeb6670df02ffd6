// Package store 提供 core.Store / core.KeyValueStore 的实现：
// MemoryStore 用于测试与单机运行，RedisStore 用于生产。
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
package store
