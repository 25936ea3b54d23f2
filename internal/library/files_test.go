// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, store *Store, identifier, content string) string {
	t.Helper()
	path := store.TempPDFPath(identifier)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegisterPDFShardsByChecksum(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	temp := writeTemp(t, store, "10.1/a", "%PDF-1.4 content A")
	finalPath, checksum, err := store.RegisterPDF(ctx, "10.1/a", temp, "unpaywall", "cc-by", "publisher")
	require.NoError(t, err)

	assert.Len(t, checksum, 64)
	wantDir := filepath.Join(store.Root(), "pdfs", checksum[:2])
	assert.Equal(t, filepath.Join(wantDir, checksum+".pdf"), finalPath)

	data, err := os.ReadFile(finalPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 content A", string(data))

	_, err = os.Stat(temp)
	assert.True(t, os.IsNotExist(err), "temp file should be moved away")

	entry, err := store.FindFile(ctx, checksum)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "10.1/a", entry.DOI)
	assert.Equal(t, "unpaywall", entry.Source)
	assert.Equal(t, "cc-by", entry.License)
	assert.Equal(t, "publisher", entry.HostType)
}

func TestRegisterPDFDeduplicatesContent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := writeTemp(t, store, "10.1/a", "%PDF-1.4 shared bytes")
	path1, sum1, err := store.RegisterPDF(ctx, "10.1/a", first, "unpaywall", "", "publisher")
	require.NoError(t, err)

	second := writeTemp(t, store, "10.1/b", "%PDF-1.4 shared bytes")
	path2, sum2, err := store.RegisterPDF(ctx, "10.1/b", second, "manual-upload", "", "local")
	require.NoError(t, err)

	assert.Equal(t, sum1, sum2)
	assert.Equal(t, path1, path2)

	_, err = os.Stat(second)
	assert.True(t, os.IsNotExist(err), "redundant temp file should be removed")

	// Exactly one physical copy in the tree.
	var count int
	filepath.Walk(filepath.Join(store.Root(), "pdfs"), func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && strings.HasSuffix(p, ".pdf") {
			count++
		}
		return nil
	})
	assert.Equal(t, 1, count)

	// Last registration wins the registry row.
	entry, err := store.FindFile(ctx, sum1)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "10.1/b", entry.DOI)
	assert.Equal(t, "manual-upload", entry.Source)
}

func TestRegisterPDFWithoutArtifactRow(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	temp := writeTemp(t, store, "10.1/orphan", "%PDF-1.4 orphan")
	_, checksum, err := store.RegisterPDF(ctx, "10.1/orphan", temp, "manual-upload", "", "local")
	require.NoError(t, err)

	// No artifact row is required for a registry entry to exist.
	artifact, err := store.FindByDOI(ctx, "10.1/orphan")
	require.NoError(t, err)
	assert.Nil(t, artifact)

	entry, err := store.FindFile(ctx, checksum)
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestFindFileMissing(t *testing.T) {
	store := testStore(t)
	entry, err := store.FindFile(context.Background(), strings.Repeat("0", 64))
	require.NoError(t, err)
	assert.Nil(t, entry)
}
