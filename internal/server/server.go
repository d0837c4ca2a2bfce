package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"dvrgrab/internal/downloaders/hls"
	"dvrgrab/internal/tasks"
	"dvrgrab/internal/utils"
)

// Server exposes the clip pipeline over HTTP: analyze a stream's window,
// start range downloads as background tasks, poll or stream their state and
// cancel them.
type Server struct {
	registry  *tasks.Registry
	router    *mux.Router
	outputDir string
	httpCfg   utils.HTTPClientConfig

	downloaders map[string]utils.Downloader
}

func New(outputDir string, httpCfg utils.HTTPClientConfig) *Server {
	s := &Server{
		registry:  tasks.NewRegistry(),
		outputDir: outputDir,
		httpCfg:   httpCfg,
		downloaders: map[string]utils.Downloader{
			"clip": &hls.ClipDownloader{},
			"grab": &hls.DirectDownloader{},
		},
	}
	r := mux.NewRouter()
	r.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/analyze", s.handleAnalyze).Methods("POST")
	r.HandleFunc("/api/download", s.handleDownload).Methods("POST")
	r.HandleFunc("/api/downloads", s.handleList).Methods("GET")
	r.HandleFunc("/api/downloads/{id}", s.handleStatus).Methods("GET")
	r.HandleFunc("/api/downloads/{id}", s.handleCancel).Methods("DELETE")
	r.HandleFunc("/api/events/{id}", s.handleEvents).Methods("GET")
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	log.Info().Str("op", "server").Msgf("Listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type analyzeResponse struct {
	ManifestURL  string  `json:"manifest_url"`
	SegmentCount int     `json:"segment_count"`
	TotalSeconds float64 `json:"total_seconds"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	job := &utils.Job{URL: req.URL, Metadata: map[string]any{}, HTTPClientConfig: s.httpCfg}
	if err := hls.ResolveManifest(job); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	manifestURL := job.Metadata["manifestURL"].(string)
	client := utils.NewGrabHTTPClient(s.httpCfg)
	segments, err := hls.FetchManifest(r.Context(), manifestURL, client)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	_, total, err := hls.BuildTimeline(segments)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		ManifestURL:  manifestURL,
		SegmentCount: len(segments),
		TotalSeconds: total,
	})
}

type downloadRequest struct {
	URL      string  `json:"url"`
	Mode     string  `json:"mode"`
	Start    float64 `json:"start_seconds"`
	End      float64 `json:"end_seconds"`
	Filename string  `json:"filename,omitempty"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" {
		req.Mode = "clip"
	}
	downloader, ok := s.downloaders[req.Mode]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}

	job := &utils.Job{
		JobType: req.Mode,
		URL:     req.URL,
		Metadata: map[string]any{
			"start": req.Start,
			"end":   req.End,
		},
		HTTPClientConfig: s.httpCfg,
	}
	if req.Filename != "" {
		job.OutputPath = filepath.Join(s.outputDir, utils.SanitizeFilename(req.Filename))
	}
	if err := downloader.ValidateJob(job); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, jobCtx := s.registry.Create(context.Background(), req.URL, req.Mode, req.Start, req.End)
	job.ID = task.ID()
	job.Task = task

	go s.runTask(jobCtx, downloader, job, task)

	writeJSON(w, http.StatusAccepted, task.Snapshot())
}

func (s *Server) runTask(ctx context.Context, downloader utils.Downloader, job *utils.Job, task *tasks.Task) {
	err := downloader.BuildJob(job)
	if err == nil {
		if s.outputDir != "" && filepath.Dir(job.OutputPath) == "." {
			// BuildJob dedups against the working directory; redo it
			// against the directory the file actually lands in.
			job.OutputPath = utils.RenewOutputPath(filepath.Join(s.outputDir, job.OutputPath))
		}
		task.SetOutputPath(job.OutputPath)
		err = downloader.Download(ctx, job)
	}
	task.Finish(err)
	if err != nil {
		log.Error().Str("op", "server").Str("task", task.ID()).Msgf("Task failed: %v", err)
	} else {
		log.Info().Str("op", "server").Str("task", task.ID()).Msgf("Task completed: %s", job.OutputPath)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := s.registry.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task.Snapshot())
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.registry.Cancel(id); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	task, _ := s.registry.Get(id)
	writeJSON(w, http.StatusOK, task.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
