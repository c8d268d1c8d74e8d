// Command migrate copies composer records between storage backends, or
// imports a directory of markdown files as documents.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/logger"
	"github.com/debemdeboas/semantic-composer/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Config file of the source backend")
	toBackend := flag.String("to-backend", "", "Target backend: memory, fs, sqlite or s3")
	toPath := flag.String("to-path", "", "Target sqlite database path")
	toDir := flag.String("to-dir", "", "Target fs directory")
	toBucket := flag.String("to-bucket", "", "Target s3 bucket")
	importDir := flag.String("import-dir", "", "Directory of .md files to import into the source backend instead")
	prefix := flag.String("prefix", "", "Storage key prefix (default from config)")
	flag.Parse()

	_ = godotenv.Load()
	log := logger.New("info")
	storage.SetLogger(log)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *prefix == "" {
		*prefix = cfg.Composer.StorageKeyPrefix
	}

	if err := run(cfg.Storage, *prefix, *importDir, target{*toBackend, *toPath, *toDir, *toBucket}, log); err != nil {
		log.Error().Stack().Err(err).Msg("Migration failed")
		os.Exit(1)
	}
}

type target struct {
	backend, path, dir, bucket string
}

func run(sourceCfg config.StorageConfig, prefix, importDir string, to target, log zerolog.Logger) error {
	ctx := context.Background()
	source, err := storage.Open(ctx, sourceCfg)
	if err != nil {
		return errors.Wrapf(err, "open source %s storage", sourceCfg.Backend)
	}
	defer source.Close()

	if importDir != "" {
		return importFiles(ctx, log, storage.NewAdapter(source, prefix), importDir)
	}

	if to.backend == "" {
		return errors.New("either --to-backend or --import-dir is required")
	}

	targetCfg := sourceCfg
	targetCfg.Backend = to.backend
	if to.path != "" {
		targetCfg.Path = to.path
	}
	if to.dir != "" {
		targetCfg.Dir = to.dir
	}
	if to.bucket != "" {
		targetCfg.S3.Bucket = to.bucket
	}

	dest, err := storage.Open(ctx, targetCfg)
	if err != nil {
		return errors.Wrapf(err, "open target %s storage", targetCfg.Backend)
	}
	defer dest.Close()

	copied, err := storage.Copy(ctx, source, dest, prefix+storage.Separator)
	if err != nil {
		return errors.Wrapf(err, "copied %d records before failing", copied)
	}
	log.Info().
		Str("from", source.Name()).
		Str("to", dest.Name()).
		Int("records", copied).
		Msg("Migration complete")
	return nil
}

// importFiles stores every .md file of dir as a document named after the file.
func importFiles(ctx context.Context, log zerolog.Logger, adapter *storage.Adapter, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "read directory %s", dir)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		id := strings.TrimSuffix(file.Name(), ".md")
		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			log.Error().Err(err).Str("file", file.Name()).Msg("Error reading file")
			continue
		}
		if err := adapter.Write(ctx, id, string(content)); err != nil {
			log.Error().Err(err).Str("file", file.Name()).Msg("Error importing file")
			continue
		}
		log.Info().Str("file", file.Name()).Str("key", adapter.KeyFor(id)).Msg("Imported document")
	}
	return nil
}
