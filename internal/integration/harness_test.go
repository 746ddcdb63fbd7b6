package integration

import (
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sir_venger/upload_lite/internal/app/uploadhttp"
	"github.com/sir_venger/upload_lite/internal/chunkstore"
	"github.com/sir_venger/upload_lite/internal/usecase/uploadsvc"
)

// testNode — полностью собранный сервер загрузок на временных каталогах.
type testNode struct {
	srv       *httptest.Server
	svc       *uploadsvc.Uploads
	store     *chunkstore.Store
	chunkDir  string
	outputDir string
}

func newNode(t *testing.T, gcTTL time.Duration) *testNode {
	t.Helper()
	root := t.TempDir()
	chunkDir := filepath.Join(root, "uploads_temp")
	outputDir := filepath.Join(root, "uploads")
	log := zerolog.New(io.Discard)

	store, err := chunkstore.New(chunkDir, log)
	if err != nil {
		t.Fatal(err)
	}
	svc := uploadsvc.New(uploadsvc.Deps{Store: store, OutputDir: outputDir, Log: log})
	h := uploadhttp.New(uploadhttp.Options{
		Service: svc,
		Stager:  store,
		GCTTL:   gcTTL,
		Log:     log,
	})

	s := httptest.NewServer(h)
	t.Cleanup(s.Close)

	return &testNode{srv: s, svc: svc, store: store, chunkDir: chunkDir, outputDir: outputDir}
}
