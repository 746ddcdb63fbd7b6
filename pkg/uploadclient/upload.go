package uploadclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sir_venger/upload_lite/pkg/uploadproto"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize = 5 << 20
	DefaultParallel  = 4
)

// ErrChunkPlanMismatch — сервер хранит части, которые не укладываются в текущее разбиение
// файла: сессия начата с другим размером части или для другого файла.
var ErrChunkPlanMismatch = errors.New("server chunks do not match the chunk plan")

type UploadOptions struct {
	// Hash — id сессии; пустой означает "<SHA-256 содержимого>-<размер части>".
	Hash string
	// FileName — имя итогового файла на сервере; по умолчанию базовое имя path.
	FileName  string
	ChunkSize int64
	Parallel  int
	// Progress — куда рисовать индикатор; nil выключает его.
	Progress io.Writer
}

// UploadResult описывает одну выполненную загрузку.
type UploadResult struct {
	Hash     string
	Total    int
	Skipped  int
	Uploaded int
	Merge    uploadproto.MergeResponse
}

// ChunkPlan описывает, на сколько частей нужно разбить файл и какого они размера.
type ChunkPlan struct {
	Total int
	Size  int64
}

// PlanChunks вычисляет число частей. Пустой файл — одна пустая часть.
func PlanChunks(length, chunkSize int64) ChunkPlan {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if length <= 0 {
		return ChunkPlan{Total: 1, Size: chunkSize}
	}
	return ChunkPlan{
		Total: int((length + chunkSize - 1) / chunkSize),
		Size:  chunkSize,
	}
}

// Upload загружает файл с докачкой: спрашивает у сервера принятые части,
// параллельно отправляет недостающие и запрашивает сборку.
func Upload(ctx context.Context, c Client, path string, opts UploadOptions) (UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return UploadResult{}, err
	}
	size := info.Size()

	plan := PlanChunks(size, opts.ChunkSize)
	hash := opts.Hash
	if hash == "" {
		sum, err := fileHash(f)
		if err != nil {
			return UploadResult{}, fmt.Errorf("hash %s: %w", path, err)
		}
		// Размер части входит в id: иначе повтор с другим -chunk-size подхватит чужие части.
		hash = fmt.Sprintf("%s-%d", sum, plan.Size)
	}
	name := opts.FileName
	if name == "" {
		name = filepath.Base(path)
	}
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = DefaultParallel
	}

	have, err := c.ListChunks(ctx, hash)
	if err != nil {
		return UploadResult{}, err
	}
	received := make(map[int]struct{}, len(have))
	for _, idx := range have {
		if idx < 0 || idx >= plan.Total {
			return UploadResult{Hash: hash, Total: plan.Total}, fmt.Errorf(
				"%w: session %q has chunk %d, file splits into %d", ErrChunkPlanMismatch, hash, idx, plan.Total)
		}
		received[idx] = struct{}{}
	}

	res := UploadResult{Hash: hash, Total: plan.Total}
	var missing []int
	var missingBytes int64
	for idx := 0; idx < plan.Total; idx++ {
		if _, ok := received[idx]; ok {
			res.Skipped++
			continue
		}
		missing = append(missing, idx)
		missingBytes += chunkLen(size, plan, idx)
	}

	bar := newProgressBar(opts.Progress, fmt.Sprintf("Uploading %s", name), missingBytes)
	bar.render(true)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallel)
	for _, idx := range missing {
		idx := idx
		eg.Go(func() error {
			section := io.NewSectionReader(f, int64(idx)*plan.Size, chunkLen(size, plan, idx))
			var r io.Reader = section
			if bar != nil {
				r = io.TeeReader(section, progressWriter{bar: bar})
			}
			return c.PutChunk(egCtx, PutChunkRequest{
				Hash:     hash,
				Index:    idx,
				FileName: name,
				Reader:   r,
			})
		})
	}
	if err = eg.Wait(); err != nil {
		bar.Fail(err)
		return res, err
	}
	bar.Finish()
	res.Uploaded = len(missing)

	if res.Merge, err = c.Merge(ctx, hash, name); err != nil {
		return res, err
	}
	return res, nil
}

func chunkLen(size int64, plan ChunkPlan, idx int) int64 {
	off := int64(idx) * plan.Size
	return max(0, min(plan.Size, size-off))
}

func fileHash(f *os.File) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, io.NewSectionReader(f, 0, 1<<62)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
