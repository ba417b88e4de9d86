package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"

	"github.com/unilink/backend/internal/config"
	"github.com/unilink/backend/internal/logger"
	"github.com/unilink/backend/internal/services"
	"github.com/unilink/backend/internal/storage"
)

// Eventarc delivers CloudEvents; for GCS finalized events the body carries
// object info. Minimal fields we need: bucket, name, metadata.
type gcsFinalizeEvent struct {
	Bucket   string            `json:"bucket"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

// cloudEventEnvelope handles Eventarc structured content mode where the GCS
// payload is nested inside a "data" field.
type cloudEventEnvelope struct {
	Data gcsFinalizeEvent `json:"data"`
}

// avatar-worker listens for bucket finalize events and syncs the resulting
// download URL onto the owner's profile. The API writes the URL itself on
// upload; the worker covers objects placed in the bucket out of band, such
// as console uploads or client-side SDK writes.
func main() {
	cfg := config.Load()
	logger.Setup(cfg.Env, cfg.LogLevel)

	addr := getEnv("PORT", "8080")

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	http.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		handleFinalize(w, r, cfg)
	})

	log.Info().Str("port", addr).Msg("avatar-worker listening")
	if err := http.ListenAndServe(":"+addr, nil); err != nil {
		log.Fatal().Err(err).Msg("worker failed to start")
	}
}

func handleFinalize(w http.ResponseWriter, r *http.Request, cfg *config.Config) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error().Err(err).Msg("worker: read body failed")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ev, ok := parseFinalizeEvent(rawBody)
	if !ok {
		log.Warn().Str("ce_type", r.Header.Get("Ce-Type")).Msg("worker: skipping unparseable event")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Only avatar objects are ours.
	if !strings.HasPrefix(ev.Name, "avatars/") {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	// Metadata can be missing from the event payload; fall back to object
	// attrs.
	if ev.Metadata == nil || ev.Metadata["userId"] == "" {
		if meta, err := fetchObjectMetadata(ctx, ev.Bucket, ev.Name); err != nil {
			log.Warn().Err(err).Str("name", ev.Name).Msg("worker: metadata fetch failed")
		} else {
			ev.Metadata = meta
		}
	}

	userID := ev.Metadata["userId"]
	if userID == "" {
		userID = strings.TrimPrefix(ev.Name, "avatars/")
	}
	token := ev.Metadata["firebaseStorageDownloadTokens"]
	if userID == "" || token == "" {
		log.Warn().Str("name", ev.Name).Msg("worker: no user id or token, skipping")
		w.WriteHeader(http.StatusOK)
		return
	}

	if cfg.MongoURI == "" {
		log.Error().Msg("worker: MONGO_URI is not set")
		http.Error(w, "MONGO_URI missing", http.StatusInternalServerError)
		return
	}

	profSvc, err := services.NewMongoProfileService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Error().Err(err).Msg("worker: mongo profile service init failed")
		// Retry by returning 500; Eventarc will retry.
		http.Error(w, "mongo init failed", http.StatusInternalServerError)
		return
	}
	defer profSvc.Close(ctx)

	url := storage.DownloadURL(ev.Bucket, ev.Name, token)
	if err := profSvc.SetAvatarURL(ctx, userID, url); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("worker: avatar url sync failed")
		http.Error(w, "sync failed", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user", userID).Str("name", ev.Name).Msg("worker: avatar url synced")
	w.WriteHeader(http.StatusOK)
}

// parseFinalizeEvent tries binary content mode first, then the structured
// CloudEvent envelope.
func parseFinalizeEvent(rawBody []byte) (gcsFinalizeEvent, bool) {
	var ev gcsFinalizeEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return ev, false
	}
	if ev.Bucket != "" && ev.Name != "" {
		return ev, true
	}

	var envelope cloudEventEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err == nil && envelope.Data.Bucket != "" && envelope.Data.Name != "" {
		return envelope.Data, true
	}
	return ev, false
}

func fetchObjectMetadata(ctx context.Context, bucket, name string) (map[string]string, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	attrs, err := client.Bucket(bucket).Object(name).Attrs(ctx)
	if err != nil {
		return nil, err
	}
	return attrs.Metadata, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
