package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/compstash/internal/faults"
)

func newRepo(t *testing.T) (*Repo, string) {
	t.Helper()
	dir := t.TempDir()
	o := NewOpener(Author{Name: "Jane Artist"})
	o.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	repo, existed, err := o.Init(context.Background(), dir)
	require.NoError(t, err)
	require.False(t, existed)
	return repo.(*Repo), dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestNewOpener_Defaults(t *testing.T) {
	o := NewOpener(Author{})
	assert.Equal(t, DefaultAuthor, o.Author)

	o = NewOpener(Author{Name: "Jane Artist"})
	assert.Equal(t, Author{Name: "Jane Artist", Email: DefaultAuthor.Email}, o.Author)
}

func TestRepo_LogOnEmptyRepository(t *testing.T) {
	r, _ := newRepo(t)

	log, err := r.Log(context.Background())

	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestRepo_CommitRecordsAuthor(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	writeFile(t, dir, "a.txt", "a")
	require.NoError(t, r.Add(ctx, "a.txt"))

	hash, err := r.Commit(ctx, "add a\n")
	require.NoError(t, err)

	log, err := r.Log(ctx)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, hash, log[0].Hash)
	assert.Equal(t, "add a", log[0].Message)
	assert.Equal(t, "Jane Artist", log[0].Author)
	assert.True(t, log[0].When.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestRepo_DiffReportsDeletions(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	writeFile(t, dir, "a.txt", "a")
	writeFile(t, dir, "b.txt", "b")
	require.NoError(t, r.Add(ctx, "a.txt"))
	require.NoError(t, r.Add(ctx, "b.txt"))
	_, err := r.Commit(ctx, "init")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "b.txt")))
	writeFile(t, dir, "a.txt", "changed")
	writeFile(t, dir, "new.txt", "untracked files are not changes")

	changes, err := r.Diff(ctx)

	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "a.txt", changes[0].OldPath)
	assert.Equal(t, "modified", string(changes[0].Kind))
	assert.Equal(t, "b.txt", changes[1].OldPath)
	assert.Equal(t, "deleted", string(changes[1].Kind))
}

func TestRepo_CreateBranch(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)

	err := r.CreateBranch(ctx, "feature")
	require.ErrorIs(t, err, faults.ErrRepositoryCommand, "no HEAD before the first commit")

	writeFile(t, dir, "a.txt", "a")
	require.NoError(t, r.Add(ctx, "a.txt"))
	_, err = r.Commit(ctx, "init")
	require.NoError(t, err)

	require.NoError(t, r.CreateBranch(ctx, "feature"))
	require.ErrorIs(t, r.CreateBranch(ctx, "feature"), faults.ErrRepositoryCommand)

	branches, err := r.Branches(ctx)
	require.NoError(t, err)
	assert.Contains(t, branches, "feature")
	assert.Len(t, branches, 2)
}

func TestRepo_AddMissingFile(t *testing.T) {
	r, _ := newRepo(t)

	err := r.Add(context.Background(), "missing.txt")

	require.ErrorIs(t, err, faults.ErrRepositoryCommand)
}

func TestOpener_OpenMissing(t *testing.T) {
	_, err := NewOpener(Author{}).Open(context.Background(), t.TempDir())

	require.ErrorIs(t, err, faults.ErrRepositoryUnavailable)
}
