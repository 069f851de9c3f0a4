package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/pitchlense/pitchlense/pkg/api"
	"github.com/pitchlense/pitchlense/pkg/api/routes"
	"github.com/pitchlense/pitchlense/pkg/api/services"
	"github.com/pitchlense/pitchlense/pkg/applog"
	"github.com/pitchlense/pitchlense/pkg/blob"
	"github.com/pitchlense/pitchlense/pkg/config"
	"github.com/pitchlense/pitchlense/pkg/db"
	"github.com/pitchlense/pitchlense/pkg/store"
	"github.com/pitchlense/pitchlense/pkg/task"
	"github.com/pitchlense/pitchlense/pkg/trigger"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the API server and background workers",
	Long: `Run starts the HTTP API together with the background task workers
that upload submitted files and invoke the analysis trigger.`,
	Run: run,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	log := applog.NewDefault()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}
	cfg.Print(log.Infof)

	database, err := db.New(ctx, db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer database.Close()

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize blob storage: %v", err)
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		log.Fatalf("failed to ensure bucket %q: %v", cfg.Bucket, err)
	}

	queue := newQueue(cfg, log)
	defer queue.Close()

	stores := store.New(database)
	svcs := services.NewServices(cfg, stores, blobs, queue, log)

	trig := trigger.NewClient(cfg.TriggerURL, cfg.TriggerTimeout)

	worker := task.NewWorker(stores, blobs, queue, trig, log, task.WorkerConfig{
		Workers:      cfg.WorkerCount,
		PollInterval: cfg.TaskPollInterval,
	})
	go worker.Start(ctx)

	if cfg.PendingReportTimeout > 0 {
		reaper := task.NewReaper(stores.Reports, blobs, cfg.PendingReportTimeout, log)
		go reaper.Run(ctx)
	}

	a := api.NewApi()
	routes.RegisterAPI(a.Api, svcs)

	addr := fmt.Sprintf(":%s", cfg.Port)

	log.Info("server starting", "addr", addr)
	log.Info("openapi docs", "url", cfg.BaseURL+"/docs")
	log.Info("openapi spec", "url", cfg.BaseURL+"/openapi.json")

	if err := http.ListenAndServe(addr, a.Router); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// newBlobStore selects the storage backend from configuration.
func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case "gcs":
		return blob.NewGCSStore(ctx, cfg.Bucket)
	case "local":
		return blob.NewLocalStore(cfg.LocalBlobDir, cfg.Bucket), nil
	default:
		return blob.NewS3Store(blob.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
	}
}

// newQueue connects to Redis, falling back to an in-process queue when it
// is unreachable. The database poll keeps tasks flowing either way.
func newQueue(cfg *config.Config, log *applog.Logger) task.Queue {
	queue, err := task.NewRedisQueue(task.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn("redis unreachable, using in-process task queue", "addr", cfg.RedisAddr, "error", err)
		return task.NewMemoryQueue(256)
	}
	return queue
}
