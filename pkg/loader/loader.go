// SPDX-License-Identifier: Apache-2.0

// Package loader scans a migrations directory and produces the ordered
// slice of swmigration.LocalMigration the planner reconciles against the
// records table. It never interprets SQL, only reads text and hashes it.
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
	"github.com/franciscoabsampaio/swellow/pkg/swmigration"
)

// nameRE matches the required "NNNNNN_slug" directory naming convention.
var nameRE = regexp.MustCompile(`^([0-9]+)_([A-Za-z0-9][A-Za-z0-9_-]*)$`)

const upFile = "up.sql"
const downFile = "down.sql"

// Load scans dir and returns its migrations ordered ascending by
// VersionID. Entries that are not directories are ignored; anything else
// that doesn't fit the expected shape returns an error from pkg/swerrs.
func Load(dir string) ([]swmigration.LocalMigration, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS is Load against an arbitrary fs.FS, used by tests to load txtar
// fixtures without touching the real filesystem.
func LoadFS(dirFS fs.FS) ([]swmigration.LocalMigration, error) {
	entries, err := fs.ReadDir(dirFS, ".")
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]string, len(entries))
	migs := make([]swmigration.LocalMigration, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()
		m := nameRE.FindStringSubmatch(name)
		if m == nil {
			return nil, swerrs.MalformedDirectoryNameError{Name: name}
		}

		versionID, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, swerrs.MalformedDirectoryNameError{Name: name}
		}

		if _, ok := seen[versionID]; ok {
			return nil, swerrs.DuplicateVersionError{VersionID: versionID}
		}
		seen[versionID] = name

		mig, err := loadOne(dirFS, name, versionID, m[2])
		if err != nil {
			return nil, err
		}

		migs = append(migs, mig)
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].VersionID < migs[j].VersionID })

	return migs, nil
}

func loadOne(dirFS fs.FS, dirName string, versionID int64, slug string) (swmigration.LocalMigration, error) {
	mig := swmigration.LocalMigration{VersionID: versionID, Slug: slug}

	upBytes, upOK, err := readIfExists(dirFS, path.Join(dirName, upFile))
	if err != nil {
		return mig, err
	}
	downBytes, downOK, err := readIfExists(dirFS, path.Join(dirName, downFile))
	if err != nil {
		return mig, err
	}

	switch {
	case !upOK && !downOK:
		return mig, swerrs.EmptyMigrationError{VersionID: versionID}
	case !upOK && downOK:
		return mig, swerrs.DownOnlyMigrationError{VersionID: versionID}
	}

	upStr := string(upBytes)
	mig.UpSQL = &upStr
	mig.UpChecksum = checksum(upBytes)

	if downOK {
		downStr := string(downBytes)
		mig.DownSQL = &downStr
		mig.DownChecksum = checksum(downBytes)
	}

	metaBytes, metaOK, err := readIfExists(dirFS, path.Join(dirName, metaFile))
	if err != nil {
		return mig, err
	}
	if metaOK {
		meta, err := parseMeta(versionID, metaBytes)
		if err != nil {
			return mig, err
		}
		mig.Meta = meta
	}

	return mig, nil
}

func readIfExists(dirFS fs.FS, path string) ([]byte, bool, error) {
	b, err := fs.ReadFile(dirFS, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
