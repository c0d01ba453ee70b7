// Package access holds the order access-control predicates. Every entry
// point gating order reads or updates goes through these two functions so
// the rules cannot drift between call sites.
package access

// CanRead reports whether requester may read an order owned by orderUserID.
func CanRead(orderUserID, requesterID string, isAdmin bool) bool {
	return isAdmin || orderUserID == requesterID
}

// CanUpdate reports whether a caller may mutate orders. Updates are stricter
// than reads: ownership never suffices, only the admin role does.
func CanUpdate(isAdmin bool) bool {
	return isAdmin
}
