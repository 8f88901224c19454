package processor

import (
	"context"
	"sort"
	"strings"

	"cryptomoji.dev/moji/address"
	"cryptomoji.dev/moji/model"
	"cryptomoji.dev/moji/prng"
	"cryptomoji.dev/moji/state"
)

func createOwner(ctx context.Context, tx txContext, a model.Action) (map[string][]byte, error) {
	if strings.TrimSpace(a.Name) == "" {
		return nil, newError(KindDecode, "MOJI-DEC-003", "owner name is required")
	}
	addr := address.OwnerAddress(tx.signer)
	got, err := read(ctx, tx.store, addr)
	if err != nil {
		return nil, err
	}
	if state.Exists(got, addr) {
		return nil, newError(KindDuplicateEntity, "MOJI-DUP-001", "owner already exists")
	}
	b, err := model.EncodeOwner(model.Owner{Key: tx.signer, Name: a.Name})
	if err != nil {
		return nil, wrapError(KindInternal, "MOJI-ENC-001", "encode owner", err)
	}
	return map[string][]byte{addr: b}, nil
}

func createCollection(ctx context.Context, tx txContext, _ model.Action) (map[string][]byte, error) {
	if tx.signature == "" {
		return nil, newError(KindDecode, "MOJI-DEC-006", "missing transaction signature")
	}
	collAddr := address.CollectionAddress(tx.signer)
	minted := mintMoji(tx.signer, prng.FromSignature(tx.signature))

	mojiAddrs := make([]string, 0, len(minted))
	seen := make(map[string]struct{}, len(minted))
	for _, m := range minted {
		addr := address.MojiAddress(tx.signer, m.DNA)
		if _, dup := seen[addr]; dup {
			return nil, newError(KindDuplicateEntity, "MOJI-DUP-003", "collection would mint the same moji twice")
		}
		seen[addr] = struct{}{}
		mojiAddrs = append(mojiAddrs, addr)
	}

	got, err := read(ctx, tx.store, append([]string{collAddr}, mojiAddrs...)...)
	if err != nil {
		return nil, err
	}
	if state.Exists(got, collAddr) {
		return nil, newError(KindDuplicateEntity, "MOJI-DUP-002", "collection already exists")
	}
	for _, addr := range mojiAddrs {
		if state.Exists(got, addr) {
			return nil, newError(KindDuplicateEntity, "MOJI-DUP-003", "moji already exists at "+addr)
		}
	}

	writes := make(map[string][]byte, len(minted)+1)
	for i, m := range minted {
		b, err := model.EncodeMoji(m)
		if err != nil {
			return nil, wrapError(KindInternal, "MOJI-ENC-001", "encode moji", err)
		}
		writes[mojiAddrs[i]] = b
	}
	sorted := append([]string(nil), mojiAddrs...)
	sort.Strings(sorted)
	b, err := model.EncodeCollection(model.Collection{Key: tx.signer, Moji: sorted})
	if err != nil {
		return nil, wrapError(KindInternal, "MOJI-ENC-001", "encode collection", err)
	}
	writes[collAddr] = b
	return writes, nil
}

func selectSire(ctx context.Context, tx txContext, a model.Action) (map[string][]byte, error) {
	if kind, ok := address.KindOf(a.Sire); !ok || kind != address.KindMoji {
		return nil, newError(KindDecode, "MOJI-DEC-004", "sire must be a moji address")
	}
	got, err := read(ctx, tx.store, a.Sire)
	if err != nil {
		return nil, err
	}
	if !state.Exists(got, a.Sire) {
		return nil, newError(KindNotFound, "MOJI-NF-001", "no moji at "+a.Sire)
	}
	m, err := model.DecodeMoji(got[a.Sire])
	if err != nil {
		return nil, wrapError(KindInternal, "MOJI-STATE-004", "stored moji is corrupt", err)
	}
	if m.Owner != tx.signer {
		return nil, newError(KindUnauthorized, "MOJI-AUTH-001", "signer does not own the sire")
	}
	b, err := model.EncodeSireListing(model.SireListing{Owner: tx.signer, Sire: a.Sire})
	if err != nil {
		return nil, wrapError(KindInternal, "MOJI-ENC-001", "encode sire listing", err)
	}
	return map[string][]byte{address.SireListingAddress(tx.signer): b}, nil
}

// breedMoji is recognized but not applied: no crossover algorithm, lineage
// rule or offspring count has been specified for it.
func breedMoji(context.Context, txContext, model.Action) (map[string][]byte, error) {
	return nil, newError(KindUnsupported, "MOJI-ACT-002", "BREED_MOJI is not supported")
}
