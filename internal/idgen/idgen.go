// Package idgen derives the identifiers used across the store: random
// object ids and the deterministic UUID v5 ids a row derives for its
// document, icon, cover and emptiness markers.
package idgen

import (
	"strconv"

	"github.com/gofrs/uuid"
)

// New returns a fresh UUID v4 object id.
func New() string {
	id, err := uuid.NewV4()
	if err != nil {
		// uuid.NewV4 only fails if the system RNG is broken, which we
		// treat the same way crypto/rand callers usually do.
		panic("idgen: failed to read random bytes: " + err.Error())
	}
	return id.String()
}

// Derive computes the deterministic UUID v5 used for a row's document id,
// icon id, cover id and is-empty marker id: uuid_v5(rowID, key).
//
// This is part of the on-wire contract: changing the namespace or the
// byte encoding of the name changes every derived id.
func Derive(rowID, key string) (string, error) {
	parent, err := uuid.FromString(rowID)
	if err != nil {
		return "", err
	}
	return uuid.NewV5(parent, key).String(), nil
}

// DeriveOID computes a UUID v5 under the standard OID namespace, used
// wherever the derivation is not relative to another object's own id
// (e.g. stable ids minted from externally supplied names).
func DeriveOID(name string) string {
	return uuid.NewV5(uuid.NamespaceOID, name).String()
}

// Valid reports whether s parses as a UUID of any version.
func Valid(s string) bool {
	_, err := uuid.FromString(s)
	return err == nil
}

// UserKey renders a signed 64-bit user id as the base-10 string used as a
// map key throughout folder sections and current-view-per-user.
func UserKey(uid int64) string {
	return strconv.FormatInt(uid, 10)
}

// ParseUserKey is the inverse of UserKey.
func ParseUserKey(key string) (int64, error) {
	return strconv.ParseInt(key, 10, 64)
}
