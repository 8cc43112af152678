package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"github.com/musewave/musewave/pkg/assemble"
	"github.com/musewave/musewave/pkg/knowledge"
	"github.com/musewave/musewave/pkg/library"
	"github.com/musewave/musewave/pkg/storage"
	"github.com/musewave/musewave/pkg/suggest"
	"github.com/musewave/musewave/pkg/textgen"
)

type Config struct {
	Debug   bool
	Token   string
	Model   string
	Timeout time.Duration

	DBType string
	DBConn string

	// Optional CSV file extending the audio catalog.
	Library string

	Addr        string
	Credentials map[string]string
}

// Serve starts the suggestion and assembly API.
func Serve(ctx context.Context, cfg *Config) error {
	log.Println("serve: server started")
	defer log.Println("serve: server ended")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Token == "" {
		return fmt.Errorf("serve: token is required")
	}

	kb, err := knowledge.New()
	if err != nil {
		return fmt.Errorf("serve: couldn't load knowledge base: %w", err)
	}
	catalog, err := library.New()
	if err != nil {
		return fmt.Errorf("serve: couldn't load asset catalog: %w", err)
	}
	if cfg.Library != "" {
		f, err := os.Open(cfg.Library)
		if err != nil {
			return fmt.Errorf("serve: couldn't open library file: %w", err)
		}
		if err := catalog.ImportAudioCSV(f); err != nil {
			_ = f.Close()
			return err
		}
		_ = f.Close()
	}
	gen := textgen.New(&textgen.Config{
		Debug:   cfg.Debug,
		Token:   cfg.Token,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	suggester := suggest.New(kb, gen, suggest.WithDebug(cfg.Debug))
	assembler := assemble.New(suggester, catalog, assemble.WithDebug(cfg.Debug))

	store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("serve: couldn't create orm store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("serve: couldn't start orm store: %w", err)
	}

	// Create router
	mux := chi.NewRouter()

	// Add middleware
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Timeout(60 * time.Second))

	// Add BasicAuth middleware
	if len(cfg.Credentials) > 0 {
		mux.Use(middleware.BasicAuth("private", cfg.Credentials))
	}

	// Create subrouter for api endpoints
	r := mux.Group(func(r chi.Router) {
		if cfg.Debug {
			r.Use(middleware.Logger)
		}
	})

	// Create server
	split := strings.Split(cfg.Addr, ":")
	if len(split) != 2 {
		return fmt.Errorf("serve: invalid address: %s", cfg.Addr)
	}
	host := split[0]
	port, err := strconv.Atoi(split[1])
	if err != nil {
		return fmt.Errorf("serve: invalid port: %s", split[1])
	}
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: mux,
	}
	go func() {
		note := fmt.Sprintf("http://%s:%d", host, port)
		if host == "" {
			note = fmt.Sprintf("all interfaces http://localhost:%d", port)
		}
		log.Printf("Starting server on %s", note)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v\n", err)
			cancel()
		}
	}()

	h := &handler{
		kb:        kb,
		suggester: suggester,
		assembler: assembler,
		store:     store,
	}

	r.Get("/api/genres", h.values(kb.Genres))
	r.Get("/api/languages", h.values(kb.Languages))
	r.Get("/api/artists", h.values(kb.Artists))
	r.Get("/api/video-styles", h.values(kb.VideoStyles))

	r.Post("/api/suggest", h.suggest)
	r.Post("/api/songs", h.createSong)
	r.Get("/api/songs", h.listSongs)
	r.Get("/api/songs/{id}", h.getSong)
	r.Post("/api/albums", h.createAlbum)
	r.Get("/api/albums", h.listAlbums)
	r.Get("/api/albums/{id}", h.getAlbum)
	r.Post("/api/tracks/copy", h.copyTrack)

	<-ctx.Done()
	return nil
}

type handler struct {
	kb        *knowledge.Base
	suggester *suggest.Suggester
	assembler *assemble.Assembler
	store     *storage.Store
}

func (h *handler) values(list func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string][]string{"values": list()})
	}
}

type suggestRequest struct {
	Field        string          `json:"field"`
	CurrentValue string          `json:"current_value"`
	Context      suggest.Context `json:"context"`
	UserID       string          `json:"user_id"`
}

func (h *handler) suggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("couldn't decode request: %v", err), http.StatusBadRequest)
		return
	}
	field := suggest.Field(req.Field)
	if !field.Valid() {
		http.Error(w, fmt.Sprintf("unknown field: %s", req.Field), http.StatusBadRequest)
		return
	}
	recent, err := h.store.RecentSuggestions(ctx, req.UserID, req.Field, 8)
	if err != nil {
		http.Error(w, fmt.Sprintf("couldn't load recent suggestions: %v", err), http.StatusInternalServerError)
		return
	}
	value, err := h.suggester.Suggest(ctx, &suggest.Request{
		Field:        field,
		CurrentValue: req.CurrentValue,
		Context:      req.Context,
		Recent:       recent,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("couldn't suggest: %v", err), http.StatusInternalServerError)
		return
	}
	if value != "" {
		if err := h.store.SetSuggestion(ctx, &storage.Suggestion{
			ID:     ulid.Make().String(),
			UserID: req.UserID,
			Field:  req.Field,
			Value:  value,
		}); err != nil {
			log.Println("couldn't store suggestion:", err)
		}
	}
	writeJSON(w, map[string]string{"suggestion": value})
}

type songRequest struct {
	assemble.TrackIntent
	UserID string `json:"user_id"`
}

func (h *handler) createSong(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req songRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("couldn't decode request: %v", err), http.StatusBadRequest)
		return
	}
	used, err := h.usedURLs(ctx, req.UserID)
	if err != nil {
		http.Error(w, fmt.Sprintf("couldn't load recent assets: %v", err), http.StatusInternalServerError)
		return
	}
	record, err := h.assembler.Song(ctx, req.TrackIntent, used)
	if err != nil {
		writeAssembleError(w, err)
		return
	}
	song := toSong(record, req.UserID, "")
	if err := h.store.SetSong(ctx, song); err != nil {
		http.Error(w, fmt.Sprintf("couldn't store song: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, song)
}

func (h *handler) getSong(w http.ResponseWriter, r *http.Request) {
	song, err := h.store.GetSong(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, fmt.Sprintf("couldn't get song: %v", err), status)
		return
	}
	writeJSON(w, song)
}

func (h *handler) listSongs(w http.ResponseWriter, r *http.Request) {
	page, size := pagination(r)
	var filters []storage.Filter
	if v := r.URL.Query().Get("user_id"); v != "" {
		filters = append(filters, storage.Where("user_id = ?", v))
	}
	if v := r.URL.Query().Get("album_id"); v != "" {
		filters = append(filters, storage.Where("album_id = ?", v))
	}
	songs, err := h.store.ListSongs(r.Context(), page, size, "created_at desc", filters...)
	if err != nil {
		http.Error(w, fmt.Sprintf("couldn't list songs: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, songs)
}

type albumRequest struct {
	assemble.AlbumIntent
	UserID string `json:"user_id"`
}

func (h *handler) createAlbum(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req albumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("couldn't decode request: %v", err), http.StatusBadRequest)
		return
	}
	record, err := h.assembler.Album(ctx, req.AlbumIntent)
	if err != nil {
		writeAssembleError(w, err)
		return
	}
	album := &storage.Album{
		ID:                ulid.Make().String(),
		UserID:            req.UserID,
		Title:             record.Title,
		MusicPrompt:       record.MusicPrompt,
		Genres:            record.Genres,
		VocalLanguages:    req.VocalLanguages,
		Lyrics:            req.Lyrics,
		ArtistInspiration: req.ArtistInspiration,
		VideoStyle:        req.VideoStyle,
		CoverArtURL:       record.CoverArtURL,
		NumSongs:          len(record.Tracks),
	}
	songs := make([]*storage.Song, 0, len(record.Tracks))
	for i := range record.Tracks {
		songs = append(songs, toSong(&record.Tracks[i], req.UserID, album.ID))
	}
	if err := h.store.SetAlbumSongs(ctx, album, songs); err != nil {
		http.Error(w, fmt.Sprintf("couldn't store album: %v", err), http.StatusInternalServerError)
		return
	}
	saved, err := h.store.GetAlbum(ctx, album.ID)
	if err != nil {
		http.Error(w, fmt.Sprintf("couldn't get album: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, saved)
}

func (h *handler) getAlbum(w http.ResponseWriter, r *http.Request) {
	album, err := h.store.GetAlbum(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, fmt.Sprintf("couldn't get album: %v", err), status)
		return
	}
	writeJSON(w, album)
}

func (h *handler) listAlbums(w http.ResponseWriter, r *http.Request) {
	page, size := pagination(r)
	var filters []storage.Filter
	if v := r.URL.Query().Get("user_id"); v != "" {
		filters = append(filters, storage.Where("user_id = ?", v))
	}
	albums, err := h.store.ListAlbums(r.Context(), page, size, "created_at desc", filters...)
	if err != nil {
		http.Error(w, fmt.Sprintf("couldn't list albums: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, albums)
}

type copyRequest struct {
	Mode        assemble.CopyMode    `json:"mode"`
	Source      assemble.TrackIntent `json:"source"`
	Destination assemble.TrackIntent `json:"destination"`
}

func (h *handler) copyTrack(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("couldn't decode request: %v", err), http.StatusBadRequest)
		return
	}
	out, err := assemble.CopyTrackFields(req.Mode, req.Source, req.Destination)
	if err != nil {
		writeAssembleError(w, err)
		return
	}
	writeJSON(w, out)
}

func (h *handler) usedURLs(ctx context.Context, userID string) (map[string]bool, error) {
	used := map[string]bool{}
	if userID == "" {
		return used, nil
	}
	urls, err := h.store.RecentAudioURLs(ctx, userID, 20)
	if err != nil {
		return nil, err
	}
	for _, u := range urls {
		used[strings.SplitN(u, "?", 2)[0]] = true
	}
	return used, nil
}

func toSong(record *assemble.TrackRecord, userID, albumID string) *storage.Song {
	return &storage.Song{
		ID:                ulid.Make().String(),
		UserID:            userID,
		AlbumID:           albumID,
		TrackNumber:       record.TrackNumber,
		Title:             record.Title,
		MusicPrompt:       record.MusicPrompt,
		Genres:            record.Genres,
		DurationSeconds:   record.DurationSeconds,
		VocalLanguages:    record.VocalLanguages,
		Lyrics:            record.Lyrics,
		ArtistInspiration: record.ArtistInspiration,
		VideoStyle:        record.VideoStyle,
		AudioURL:          record.AudioURL,
		CoverArtURL:       record.CoverArtURL,
		Accuracy:          record.Accuracy,
		IsFallback:        record.IsFallback,
	}
}

// writeAssembleError maps validation problems to 422 so callers can fix
// their input, everything else to 500.
func writeAssembleError(w http.ResponseWriter, err error) {
	var verr *assemble.ValidationError
	if errors.As(err, &verr) {
		http.Error(w, verr.Reason, http.StatusUnprocessableEntity)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func pagination(r *http.Request) (page, size int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}
	size, err = strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil {
		size = 100
	}
	return page, size
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("couldn't encode response:", err)
	}
}
