// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"context"
	"flag"
	"fmt"
	"path"

	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
)

// DBFlags pick a local database directory or the database of a running
// server.
type DBFlags struct {
	ClientFlags

	dbURLPath string

	dataDir string
}

func (f *DBFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.dataDir, "db-dir", "", "Path to a local database directory; server database is used when empty")

	f.ClientFlags.SetFlags(fset)
	fset.StringVar(&f.dbURLPath, "db-url-path", "/db", "path to db api handler")
}

// IsRemoteDatabase returns true if target database is a remote database over
// http.
func (f *DBFlags) IsRemoteDatabase() bool {
	return f.dataDir == ""
}

// GetDatabase returns the target database and a function to release it.
func (f *DBFlags) GetDatabase(ctx context.Context) (kv.Database, func(), error) {
	if len(f.dataDir) != 0 {
		bopts := badger.DefaultOptions(f.dataDir)
		bopts.Logger = nil
		bdb, err := badger.Open(bopts)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open the database at %q: %w", f.dataDir, err)
		}
		return kvbadger.New(bdb, IsGoodKey), func() { bdb.Close() }, nil
	}

	addrURL := f.ClientFlags.AddressURL()
	addrURL.Path = path.Join(addrURL.Path, f.dbURLPath)
	return kvhttp.New(addrURL, f.ClientFlags.HttpClient()), func() {}, nil
}

// IsGoodKey accepts only the absolute and clean paths as database keys.
func IsGoodKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}
