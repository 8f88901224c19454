// Package address derives and validates the fixed-width ledger keys used by
// the cryptomoji transaction family.
//
// Every full address is 70 lowercase hex characters:
//
//	NAMESPACE (6) + KIND (2) + SUFFIX (62)
//
// All functions are pure: the same inputs always produce the same address on
// every node. Query prefixes are returned as the distinct Prefix type so they
// cannot be handed to code that writes state.
package address

import (
	"crypto/sha512"
	"encoding/hex"
	"sort"
	"strings"
)

const (
	// Namespace identifies cryptomoji keys in the shared global keyspace.
	Namespace = "5f4d76"

	// Length is the length of every full address.
	Length = 70

	ownerSliceLen = 8
	dnaSliceLen   = 54
)

// Kind is the 2-hex-character entity-kind code following the namespace.
type Kind string

const (
	KindCollection  Kind = "00"
	KindMoji        Kind = "01"
	KindSireListing Kind = "02"
	KindOffer       Kind = "03"
	// KindOwner keeps owner registrations apart from sire listings, which are
	// also keyed solely by the owner's public key.
	KindOwner Kind = "04"
)

func (k Kind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindMoji:
		return "moji"
	case KindSireListing:
		return "sire-listing"
	case KindOffer:
		return "offer"
	case KindOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// Prefix is a partial address usable only as a range-query filter.
type Prefix string

func (p Prefix) String() string { return string(p) }

// Matches reports whether addr falls under the prefix.
func (p Prefix) Matches(addr string) bool { return strings.HasPrefix(addr, string(p)) }

// Hash returns the lowercase hex SHA-512 digest of s (128 characters).
func Hash(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

func full(kind Kind, suffix string) string {
	return (Namespace + string(kind) + suffix)[:Length]
}

// CollectionAddress returns the address of the collection owned by ownerKey.
func CollectionAddress(ownerKey string) string {
	return full(KindCollection, Hash(ownerKey))
}

// MojiAddress returns the address of the moji with the given dna owned by
// ownerKey. The first 8 suffix characters come from the owner key so that all
// moji of one owner share the MojiOwnerPrefix.
func MojiAddress(ownerKey, dna string) string {
	return Namespace + string(KindMoji) + Hash(ownerKey)[:ownerSliceLen] + Hash(dna)[:dnaSliceLen]
}

// SireListingAddress returns the address of ownerKey's sire listing.
func SireListingAddress(ownerKey string) string {
	return full(KindSireListing, Hash(ownerKey))
}

// OwnerAddress returns the address of ownerKey's owner registration.
func OwnerAddress(ownerKey string) string {
	return full(KindOwner, Hash(ownerKey))
}

// OfferAddress returns the address of an offer by ownerKey for one or more
// moji. The moji addresses are sorted before hashing, so the offer address
// does not depend on argument order.
func OfferAddress(ownerKey string, mojiAddresses ...string) string {
	sorted := append([]string(nil), mojiAddresses...)
	sort.Strings(sorted)
	return Namespace + string(KindOffer) + Hash(ownerKey)[:ownerSliceLen] + Hash(strings.Join(sorted, ""))[:dnaSliceLen]
}

// NamespacePrefix matches every cryptomoji address.
func NamespacePrefix() Prefix { return Prefix(Namespace) }

func CollectionPrefix() Prefix  { return kindPrefix(KindCollection) }
func MojiPrefix() Prefix        { return kindPrefix(KindMoji) }
func SireListingPrefix() Prefix { return kindPrefix(KindSireListing) }
func OfferPrefix() Prefix       { return kindPrefix(KindOffer) }
func OwnerPrefix() Prefix       { return kindPrefix(KindOwner) }

// MojiOwnerPrefix matches every moji owned by ownerKey (16 characters).
func MojiOwnerPrefix(ownerKey string) Prefix {
	return Prefix(Namespace + string(KindMoji) + Hash(ownerKey)[:ownerSliceLen])
}

func kindPrefix(k Kind) Prefix { return Prefix(Namespace + string(k)) }

// IsValid reports whether addr is a full cryptomoji address: exactly 70
// lowercase hex characters beginning with the namespace.
func IsValid(addr string) bool {
	if len(addr) != Length || !strings.HasPrefix(addr, Namespace) {
		return false
	}
	for i := 0; i < len(addr); i++ {
		c := addr[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsValidValue is IsValid for values of unknown type; non-strings are invalid.
func IsValidValue(v any) bool {
	s, ok := v.(string)
	return ok && IsValid(s)
}

// KindOf returns the entity kind of a valid address. ok is false when addr is
// invalid or carries an unassigned kind code.
func KindOf(addr string) (Kind, bool) {
	if !IsValid(addr) {
		return "", false
	}
	k := Kind(addr[len(Namespace) : len(Namespace)+2])
	switch k {
	case KindCollection, KindMoji, KindSireListing, KindOffer, KindOwner:
		return k, true
	default:
		return "", false
	}
}
