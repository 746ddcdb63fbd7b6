package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sir_venger/upload_lite/internal/logging"
	"github.com/sir_venger/upload_lite/pkg/uploadclient"
)

// main загружает файл частями с докачкой уже принятых сервером частей.
func main() {
	server := flag.String("server", "http://localhost:9999", "upload server base URL")
	file := flag.String("file", "", "file to upload")
	name := flag.String("name", "", "target file name (default: base name of -file)")
	hash := flag.String("hash", "", "session id (default: <sha256 of the file>-<chunk size>)")
	chunkSize := flag.Int64("chunk-size", uploadclient.DefaultChunkSize, "chunk size in bytes")
	parallel := flag.Int("parallel", uploadclient.DefaultParallel, "concurrent chunk uploads")
	quiet := flag.Bool("quiet", false, "disable progress bar")
	flag.Parse()

	log := logging.New("upload", "info", true)
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := uploadclient.UploadOptions{
		Hash:      *hash,
		FileName:  *name,
		ChunkSize: *chunkSize,
		Parallel:  *parallel,
	}
	if !*quiet {
		opts.Progress = os.Stdout
	}

	res, err := uploadclient.Upload(ctx, uploadclient.New(*server), *file, opts)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("upload failed")
	}

	fmt.Printf("session %s: %d chunks (%d resumed, %d sent) -> %s (%d bytes)\n",
		res.Hash, res.Total, res.Skipped, res.Uploaded, res.Merge.FilePath, res.Merge.Size)
	if res.Merge.Warning != "" {
		log.Warn().Str("session", res.Hash).Msg(res.Merge.Warning)
	}
}
