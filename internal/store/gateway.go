// Package store implements the persistence gateway: full-collection
// load/save of serialized entity records. Each service owns one collection
// and treats the gateway as the system of record on disk; collections are
// read once at construction and rewritten after every mutation.
package store

import "context"

// Record is one serialized entity. Data holds the entity's JSON encoding;
// the gateway never inspects it.
type Record struct {
	ID   string `json:"id"`
	Data []byte `json:"data"`
}

// Gateway is the read-all/write-all persistence contract. SaveAll has
// full-overwrite semantics: the stored collection afterwards is exactly the
// given records, in the given order.
type Gateway interface {
	LoadAll(ctx context.Context) ([]Record, error)
	SaveAll(ctx context.Context, records []Record) error
}
