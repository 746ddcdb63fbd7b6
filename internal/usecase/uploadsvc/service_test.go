package uploadsvc

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sir_venger/upload_lite/internal/chunkstore"
	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store  *chunkstore.Store
	svc    *Uploads
	outDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := chunkstore.New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	outDir := filepath.Join(t.TempDir(), "uploads")
	return &testEnv{
		store:  store,
		outDir: outDir,
		svc:    New(Deps{Store: store, OutputDir: outDir, Log: zerolog.Nop()}),
	}
}

func (e *testEnv) admit(t *testing.T, id string, idx int, data string) {
	t.Helper()
	st, err := e.store.Stage(bytes.NewReader([]byte(data)))
	require.NoError(t, err)
	defer st.Discard()

	require.NoError(t, e.svc.AdmitChunk(context.Background(), AdmitRequest{
		SessionID: id,
		Index:     idx,
		Payload:   st,
		FileName:  "file.bin",
	}))
}

func TestListChunks_ResumeCorrectness(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, idx := range []int{0, 2, 5} {
		env.admit(t, "s1", idx, "x")
	}
	got, err := env.svc.ListChunks(ctx, "s1")
	require.NoError(t, err)
	require.ElementsMatch(t, []int{0, 2, 5}, got)

	// Повторная часть перезаписывает, а не дублирует.
	env.admit(t, "s1", 2, "y")
	got, err = env.svc.ListChunks(ctx, "s1")
	require.NoError(t, err)
	require.ElementsMatch(t, []int{0, 2, 5}, got)

	again, err := env.svc.ListChunks(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestListChunks_UnknownSession(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.svc.ListChunks(context.Background(), "never-seen")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestListChunks_RejectsTraversal(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ListChunks(context.Background(), "../etc")
	require.ErrorIs(t, err, models.ErrInvalidSessionID)
}

func TestAdmitChunk_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.svc.AdmitChunk(ctx, AdmitRequest{SessionID: "s1", Index: 0})
	require.ErrorIs(t, err, models.ErrMissingPayload)

	st, err := env.store.Stage(bytes.NewReader([]byte("a")))
	require.NoError(t, err)
	defer st.Discard()

	err = env.svc.AdmitChunk(ctx, AdmitRequest{SessionID: "s1", Index: -1, Payload: st})
	require.ErrorIs(t, err, models.ErrInvalidChunkIndex)

	err = env.svc.AdmitChunk(ctx, AdmitRequest{SessionID: "a/b", Index: 0, Payload: st})
	require.ErrorIs(t, err, models.ErrInvalidSessionID)
}

func TestMerge_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "s1", 0, "AB")
	env.admit(t, "s1", 1, "CD")

	res, err := env.svc.Merge(context.Background(), "s1", "out.txt")
	require.NoError(t, err)
	require.NoError(t, res.CleanupErr)
	require.Equal(t, filepath.Join(env.outDir, "out.txt"), res.Path)
	require.EqualValues(t, 4, res.Size)
	require.Equal(t, 2, res.Chunks)

	b, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, "ABCD", string(b))
}

func TestMerge_NumericOrder(t *testing.T) {
	env := newTestEnv(t)
	payloads := map[int]string{9: "nine,", 10: "ten,", 2: "two,", 1: "one,"}
	for _, idx := range []int{9, 10, 2, 1} {
		env.admit(t, "s1", idx, payloads[idx])
	}

	res, err := env.svc.Merge(context.Background(), "s1", "out.bin")
	require.NoError(t, err)

	b, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, "one,two,nine,ten,", string(b))
}

func TestMerge_NoChunks(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Merge(context.Background(), "nonexistent-session", "out.bin")
	require.ErrorIs(t, err, models.ErrNoChunksFound)
	require.True(t, models.IsClientError(err))
	require.NoFileExists(t, filepath.Join(env.outDir, "out.bin"))
}

func TestMerge_EmptySessionDir(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.EnsureSessionDir("s1")
	require.NoError(t, err)

	_, err = env.svc.Merge(context.Background(), "s1", "out.bin")
	require.ErrorIs(t, err, models.ErrNoChunksFound)
}

func TestMerge_IsDestructive(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "s1", 0, "data")

	_, err := env.svc.Merge(context.Background(), "s1", "out.bin")
	require.NoError(t, err)

	got, err := env.svc.ListChunks(context.Background(), "s1")
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoDirExists(t, env.store.SessionDir("s1"))
	require.Zero(t, env.svc.gates.len())
}

func TestMerge_ZeroLengthChunk(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "s1", 2, "AB")
	env.admit(t, "s1", 3, "")
	env.admit(t, "s1", 4, "CD")

	res, err := env.svc.Merge(context.Background(), "s1", "out.bin")
	require.NoError(t, err)
	require.Equal(t, 3, res.Chunks)

	b, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, "ABCD", string(b))
}

func TestMerge_OverwritesExistingDestination(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.outDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.outDir, "out.bin"), []byte("much longer old content"), 0o644))

	env.admit(t, "s1", 0, "new")
	res, err := env.svc.Merge(context.Background(), "s1", "out.bin")
	require.NoError(t, err)

	b, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, "new", string(b))
}

func TestMerge_InvalidFileName(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "s1", 0, "data")

	_, err := env.svc.Merge(context.Background(), "s1", "../escape.bin")
	require.ErrorIs(t, err, models.ErrInvalidFileName)

	got, err := env.svc.ListChunks(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, []int{0}, got)
}

func TestMerge_CanceledContext(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "s1", 0, "a")
	env.admit(t, "s1", 1, "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.svc.Merge(ctx, "s1", "out.bin")
	require.ErrorIs(t, err, context.Canceled)

	got, err := env.svc.ListChunks(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, got)
}

func TestMerge_CanceledContextKeepsExistingDestination(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.outDir, 0o755))
	dst := filepath.Join(env.outDir, "out.bin")
	require.NoError(t, os.WriteFile(dst, []byte("previous artifact"), 0o644))
	env.admit(t, "s1", 0, "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.svc.Merge(ctx, "s1", "out.bin")
	require.ErrorIs(t, err, context.Canceled)

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "previous artifact", string(b))
}

func TestMerge_WarnsOnIndexGaps(t *testing.T) {
	env := newTestEnv(t)
	var logs bytes.Buffer
	env.svc.Log = zerolog.New(&logs)

	env.admit(t, "s1", 0, "a")
	env.admit(t, "s1", 3, "d")

	res, err := env.svc.Merge(context.Background(), "s1", "out.bin")
	require.NoError(t, err)
	require.Equal(t, 2, res.Chunks)
	require.Contains(t, logs.String(), "chunk indices are not contiguous")
	require.Contains(t, logs.String(), `"missing":2`)
}

func TestMerge_ContiguousIndicesDoNotWarn(t *testing.T) {
	env := newTestEnv(t)
	var logs bytes.Buffer
	env.svc.Log = zerolog.New(&logs)

	env.admit(t, "s1", 0, "a")
	env.admit(t, "s1", 1, "b")

	_, err := env.svc.Merge(context.Background(), "s1", "out.bin")
	require.NoError(t, err)
	require.NotContains(t, logs.String(), "not contiguous")
}

func TestMergeAndAdmit_MutuallyExclusive(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "s1", 0, "a")

	release, ok := env.svc.gates.acquireExclusive("s1")
	require.True(t, ok)

	st, err := env.store.Stage(bytes.NewReader([]byte("b")))
	require.NoError(t, err)
	defer st.Discard()

	err = env.svc.AdmitChunk(context.Background(), AdmitRequest{SessionID: "s1", Index: 1, Payload: st})
	require.ErrorIs(t, err, models.ErrSessionBusy)

	_, err = env.svc.Merge(context.Background(), "s1", "out.bin")
	require.ErrorIs(t, err, models.ErrSessionBusy)

	// Другие сессии не блокируются.
	env.admit(t, "s2", 0, "c")

	release()
	require.NoError(t, env.svc.AdmitChunk(context.Background(), AdmitRequest{SessionID: "s1", Index: 1, Payload: st}))
}

func TestMerge_RejectedWhileAdmitting(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "s1", 0, "a")

	release, ok := env.svc.gates.acquireShared("s1")
	require.True(t, ok)
	defer release()

	_, err := env.svc.Merge(context.Background(), "s1", "out.bin")
	require.ErrorIs(t, err, models.ErrSessionBusy)
}

type failingCleanupStore struct {
	*chunkstore.Store
}

func (failingCleanupStore) DeleteSession(string) error {
	return models.NewStorageError("remove", "session", errors.New("permission denied"))
}

func TestMerge_CleanupFailureIsReported(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "s1", 0, "AB")
	env.svc.Store = failingCleanupStore{Store: env.store}

	res, err := env.svc.Merge(context.Background(), "s1", "out.txt")
	require.NoError(t, err)

	var cleanupErr *models.CleanupError
	require.ErrorAs(t, res.CleanupErr, &cleanupErr)
	require.Equal(t, "s1", cleanupErr.SessionID)

	b, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, "AB", string(b))
}

func TestSweepStale(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "old", 0, "a")
	env.admit(t, "fresh", 0, "b")
	env.admit(t, "busy", 0, "c")

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(env.store.SessionDir("old"), past, past))
	require.NoError(t, os.Chtimes(env.store.SessionDir("busy"), past, past))

	release, ok := env.svc.gates.acquireShared("busy")
	require.True(t, ok)
	defer release()

	report, err := env.svc.SweepStale(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, report.Sessions)
	require.Equal(t, 1, report.Skipped)
	require.NoDirExists(t, env.store.SessionDir("old"))
	require.DirExists(t, env.store.SessionDir("fresh"))
	require.DirExists(t, env.store.SessionDir("busy"))
}

func TestSweepStale_DisabledWithoutTTL(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "old", 0, "a")
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(env.store.SessionDir("old"), past, past))

	report, err := env.svc.SweepStale(context.Background(), 0)
	require.NoError(t, err)
	require.Zero(t, report.Sessions)
	require.DirExists(t, env.store.SessionDir("old"))
}
