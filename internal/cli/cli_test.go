package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/polya/internal/config"
	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/pkg/adapters/redis"
	"github.com/aretw0/polya/pkg/adapters/sqlite"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, kind config.StoreKind) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Store:      kind,
		SessionDir: filepath.Join(dir, "sessions"),
		SQLitePath: filepath.Join(dir, "polya.db"),
		HTTPAddr:   ":0",
		Tutor:      config.TutorConfig{Timeout: time.Second},
	}
}

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, kind := range []config.StoreKind{config.StoreMemory, config.StoreFile, config.StoreSQLite, config.StoreRedis} {
		t.Run(string(kind), func(t *testing.T) {
			cfg := testConfig(t, kind)
			cfg.Redis.Addr = mr.Addr()

			p, err := OpenStore(context.Background(), cfg)
			require.NoError(t, err)
			defer p.Close()
			assert.Equal(t, kind, p.Kind)

			if kind == config.StoreRedis {
				assert.IsType(t, &redis.Locker{}, p.Locker)
			} else {
				assert.Nil(t, p.Locker)
			}

			ctx := context.Background()
			m := p.Manager(logging.NewNop())
			s := &domain.Session{ID: "s1", ExerciseID: "x", Answers: []string{""}, HintVisible: []bool{false}}
			require.NoError(t, m.Save(ctx, "s1", s))
			loaded, err := m.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, s, loaded)
		})
	}
}

func TestOpenStore_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t, config.StoreRedis)
	cfg.Redis.Addr = addr
	_, err := OpenStore(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestPersistence_Summary(t *testing.T) {
	p, err := OpenStore(context.Background(), testConfig(t, config.StoreMemory))
	require.NoError(t, err)
	_, err = p.Summary(context.Background())
	assert.ErrorIs(t, err, ErrSummaryUnsupported)

	p, err = OpenStore(context.Background(), testConfig(t, config.StoreSQLite))
	require.NoError(t, err)
	defer p.Close()
	summary, err := p.Summary(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary)
	assert.IsType(t, &sqlite.Store{}, p.Store)
}

func TestOpenStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreSQLite)
	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	p, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, p.Encrypted)

	score := 100
	s := &domain.Session{ID: "s1", ExerciseID: "x", Answers: []string{"private"}, HintVisible: []bool{false}, Completed: true, Score: &score}
	require.NoError(t, p.Manager(logging.NewNop()).Save(ctx, "s1", s))

	loaded, err := p.Manager(logging.NewNop()).Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "private", loaded.Answers[0])

	summary, err := p.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 1, summary[0].Completed)
	require.NoError(t, p.Close())

	cfg.EncryptionKey = ""
	plain, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer plain.Close()
	raw, err := plain.Store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw.Answers[0], "enc:v2:"))
}

func TestOpenStore_InvalidKey(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	cfg.EncryptionKey = "too-short"
	_, err := OpenStore(context.Background(), cfg)
	assert.ErrorContains(t, err, config.EnvEncryptionKey)
}

func TestNewEngine_CatalogPath(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	engine, err := NewEngine(cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Len(t, engine.Exercises(), 2)

	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewEngine(cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestNewEngine_DebugHooks(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewWithWriter(&logs, logging.FormatText, slog.LevelDebug)

	engine, err := NewEngine(testConfig(t, config.StoreMemory), logger, DebugHooks(logger))
	require.NoError(t, err)
	_, err = engine.Start(context.Background(), "s1", 0)
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "Session Start")
}

func TestRunPractice_PersistsAndResumes(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	long := strings.Repeat("z", 55)

	var out bytes.Buffer
	err := RunPractice(context.Background(), cfg, PracticeOptions{
		SessionID: "cli",
		Exercise:  1,
		In:        strings.NewReader("answer " + long + "\nnext\nquit\n"),
		Out:       &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Session 'cli' (file store).")
	assert.Contains(t, out.String(), "Progress saved at step 2.")

	_, err = os.Stat(filepath.Join(cfg.SessionDir, "cli.json"))
	require.NoError(t, err)

	out.Reset()
	err = RunPractice(context.Background(), cfg, PracticeOptions{
		SessionID: "cli",
		In:        strings.NewReader("next\nnext\nnext\n"),
		Out:       &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Completed with score 25.")

	out.Reset()
	err = RunPractice(context.Background(), cfg, PracticeOptions{
		SessionID: "cli",
		Fresh:     true,
		Quiet:     true,
		In:        strings.NewReader(""),
		Out:       &out,
	})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), ">>>")
}

func TestRunPractice_RecordsLearnerProgress(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreSQLite)
	cfg.Tutor.UserID = "ana"
	long := strings.Repeat("z", 55)

	var out bytes.Buffer
	err := RunPractice(ctx, cfg, PracticeOptions{
		SessionID: "cli",
		In:        strings.NewReader("answer " + long + "\nnext\nnext\nnext\nnext\n"),
		Out:       &out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "Completed with score 25.")

	p, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer p.Close()

	progress, err := p.LearnerProgress(ctx, "ana", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Completions)
	require.Len(t, progress.Recent, 1)
	assert.Equal(t, "cli", progress.Recent[0].SessionID)
	assert.Equal(t, 25, progress.Recent[0].Score)

	board, err := p.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "ana", board[0].UserID)
}

func TestPersistence_ProgressUnsupported(t *testing.T) {
	p, err := OpenStore(context.Background(), testConfig(t, config.StoreMemory))
	require.NoError(t, err)

	assert.Nil(t, p.ProgressHooks("ana", nil).OnComplete)
	_, err = p.LearnerProgress(context.Background(), "ana", 1)
	assert.ErrorIs(t, err, ErrProgressUnsupported)
	_, err = p.Leaderboard(context.Background(), 1)
	assert.ErrorIs(t, err, ErrProgressUnsupported)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, HandleExecutionError(nil))
	assert.NoError(t, HandleExecutionError(context.Canceled))
	assert.NoError(t, HandleExecutionError(io.EOF))
	boom := errors.New("boom")
	assert.ErrorIs(t, HandleExecutionError(boom), boom)
}

func TestSignalContext_CancelWithoutSignal(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}
