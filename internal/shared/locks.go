package shared

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// TenantLockID derives a stable advisory-lock id for a tenant. Postings for
// one tenant are serialized by taking this lock for the transaction.
func TenantLockID(tenant uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write(tenant[:])
	return int64(h.Sum64())
}
