// Package snapshot exports and imports ledger state as a deterministic TAR
// archive.
//
// Layout:
//
//	state/<address>   the raw value stored at address
//	index.json        per-entry CIDs and the state root (optional)
//
// Identical state always exports to identical bytes: entries are sorted by
// address and TAR headers are normalized.
package snapshot

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"cryptomoji.dev/moji/cidutil"
	"cryptomoji.dev/moji/state"
)

// FormatVersion is the current index schema version.
const FormatVersion = 1

var (
	ErrEntryMismatch = errors.New("snapshot: entry does not match index")
	ErrRootMismatch  = errors.New("snapshot: state root does not match index")
)

var epoch0 = time.Unix(0, 0).UTC()

type ExportOptions struct {
	// Prefix limits the export to addresses under it. Empty exports all.
	Prefix string
	// IncludeIndex controls whether index.json is written.
	IncludeIndex bool
}

// Index is the decoded index.json.
type Index struct {
	Version   int          `json:"version"`
	CIDCodec  string       `json:"cidCodec"`
	Multihash string       `json:"multihash"`
	StateRoot string       `json:"stateRoot"`
	Entries   []IndexEntry `json:"entries"`
}

type IndexEntry struct {
	Address string `json:"address"`
	CID     string `json:"cid"`
	Size    int    `json:"size"`
}

// Root returns the CID identifying a set of entries: the CID of their
// canonical encoding.
func Root(entries map[string][]byte) (cid.Cid, error) {
	return cidutil.EntriesCID(entries)
}

// Export writes every entry of store under opts.Prefix to w. store must
// support listing. It returns the state root of the exported entries.
func Export(ctx context.Context, w io.Writer, store state.Store, opts ExportOptions) (cid.Cid, error) {
	if store == nil {
		return cid.Undef, fmt.Errorf("snapshot: nil store")
	}
	keys, err := state.List(ctx, store, opts.Prefix)
	if err != nil {
		return cid.Undef, err
	}
	values := map[string][]byte{}
	if len(keys) > 0 {
		values, err = store.Get(ctx, keys)
		if err != nil {
			return cid.Undef, err
		}
	}

	tw := tar.NewWriter(w)
	entries := make(map[string][]byte, len(keys))
	idx := Index{Version: FormatVersion, CIDCodec: "raw", Multihash: "sha2-256", Entries: []IndexEntry{}}
	for _, k := range keys {
		v := values[k]
		if len(v) == 0 {
			// Deleted between List and Get.
			continue
		}
		if err := writeFile(tw, "state/"+k, v); err != nil {
			_ = tw.Close()
			return cid.Undef, err
		}
		entries[k] = v
		idx.Entries = append(idx.Entries, IndexEntry{Address: k, CID: cidutil.CIDv1RawSHA256(v), Size: len(v)})
	}

	root, err := Root(entries)
	if err != nil {
		_ = tw.Close()
		return cid.Undef, err
	}
	if opts.IncludeIndex {
		idx.StateRoot = root.String()
		b, err := json.Marshal(idx)
		if err != nil {
			_ = tw.Close()
			return cid.Undef, err
		}
		if err := writeFile(tw, "index.json", append(b, '\n')); err != nil {
			_ = tw.Close()
			return cid.Undef, err
		}
	}
	return root, tw.Close()
}

type ImportOptions struct {
	// IgnoreUnknown skips unrecognized TAR entries instead of failing.
	IgnoreUnknown bool
	// RequireIndex fails archives that carry no index.json.
	RequireIndex bool
}

// Import reads an archive from r and writes its entries to store with a
// single Set, so either the whole snapshot lands or nothing does. When the
// archive has an index, every entry and the state root are checked against
// it first. It returns the state root of the imported entries.
func Import(ctx context.Context, r io.Reader, store state.Store, opts ImportOptions) (cid.Cid, error) {
	if store == nil {
		return cid.Undef, fmt.Errorf("snapshot: nil store")
	}
	entries, idx, err := read(r, opts)
	if err != nil {
		return cid.Undef, err
	}
	if idx == nil && opts.RequireIndex {
		return cid.Undef, fmt.Errorf("snapshot: missing index.json")
	}
	root, err := Root(entries)
	if err != nil {
		return cid.Undef, err
	}
	if idx != nil {
		if err := verify(entries, root, *idx); err != nil {
			return cid.Undef, err
		}
	}
	if len(entries) == 0 {
		return root, nil
	}
	written, err := store.Set(ctx, entries)
	if err != nil {
		return cid.Undef, err
	}
	if len(written) != len(entries) {
		return cid.Undef, state.ErrAckMismatch
	}
	return root, nil
}

func read(r io.Reader, opts ImportOptions) (map[string][]byte, *Index, error) {
	tr := tar.NewReader(r)
	entries := map[string][]byte{}
	var idx *Index
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return entries, idx, nil
		}
		if err != nil {
			return nil, nil, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("snapshot: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return nil, nil, fmt.Errorf("snapshot: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		switch {
		case name == "index.json":
			var i Index
			dec := json.NewDecoder(tr)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&i); err != nil {
				return nil, nil, fmt.Errorf("snapshot: index.json: %w", err)
			}
			if i.Version != FormatVersion {
				return nil, nil, fmt.Errorf("snapshot: unsupported index version %d", i.Version)
			}
			idx = &i
		case strings.HasPrefix(name, "state/"):
			addr := strings.TrimPrefix(name, "state/")
			if !state.ValidKey(addr) {
				return nil, nil, fmt.Errorf("snapshot: %w: %s", state.ErrInvalidKey, addr)
			}
			if _, dup := entries[addr]; dup {
				return nil, nil, fmt.Errorf("snapshot: duplicate entry: %s", addr)
			}
			v, err := io.ReadAll(tr)
			if err != nil {
				return nil, nil, err
			}
			if len(v) == 0 {
				return nil, nil, fmt.Errorf("snapshot: %w: %s", state.ErrEmptyValue, addr)
			}
			entries[addr] = v
		default:
			if !opts.IgnoreUnknown {
				return nil, nil, fmt.Errorf("snapshot: unknown entry: %s", name)
			}
		}
	}
}

func verify(entries map[string][]byte, root cid.Cid, idx Index) error {
	if len(idx.Entries) != len(entries) {
		return fmt.Errorf("%w: %d indexed, %d present", ErrEntryMismatch, len(idx.Entries), len(entries))
	}
	for _, e := range idx.Entries {
		v, ok := entries[e.Address]
		if !ok {
			return fmt.Errorf("%w: %s missing", ErrEntryMismatch, e.Address)
		}
		if len(v) != e.Size || cidutil.CIDv1RawSHA256(v) != e.CID {
			return fmt.Errorf("%w: %s", ErrEntryMismatch, e.Address)
		}
	}
	if idx.StateRoot != root.String() {
		return ErrRootMismatch
	}
	return nil
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
