package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/store"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

// Wire payloads for the CLI and any other API consumers.
type statusPayload struct {
	Running     bool         `json:"running"`
	StateDBPath string       `json:"stateDbPath"`
	LockFile    string       `json:"lockFile"`
	LastPass    *passPayload `json:"lastPass,omitempty"`
	LastError   string       `json:"lastError,omitempty"`
	NextPassAt  *time.Time   `json:"nextPassAt,omitempty"`
}

type passPayload struct {
	PassID    string    `json:"passId"`
	TermID    string    `json:"termId"`
	StartedAt time.Time `json:"startedAt"`
	DurationS float64   `json:"durationSeconds"`
	Created   int       `json:"created"`
	Replaced  int       `json:"replaced"`
	Updated   int       `json:"updated"`
	Canceled  int       `json:"canceled"`
	Skipped   int       `json:"skipped"`
	Frozen    int       `json:"frozen"`
	Failed    int       `json:"failed"`
	MailSent  int       `json:"mailSent"`
	Errors    []string  `json:"errors,omitempty"`
}

type schedulePayload struct {
	Series []seriesPayload `json:"series"`
}

type seriesPayload struct {
	SectionID     string `json:"sectionId"`
	PatternID     string `json:"patternId"`
	SeriesID      string `json:"seriesId"`
	Title         string `json:"title"`
	RoomID        string `json:"roomId,omitempty"`
	MeetingDays   string `json:"meetingDays"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	RecordingType string `json:"recordingType"`
	PublishType   string `json:"publishType"`
}

type historyPayload struct {
	Entries []historyEntryPayload `json:"entries"`
}

type historyEntryPayload struct {
	ID          int64  `json:"id"`
	SectionID   string `json:"sectionId"`
	PatternID   string `json:"patternId,omitempty"`
	FieldName   string `json:"fieldName"`
	ValueOld    string `json:"valueOld,omitempty"`
	ValueNew    string `json:"valueNew,omitempty"`
	RequestedBy string `json:"requestedBy,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{bind: bind, logger: logger, daemon: d}
	token := strings.TrimSpace(cfg.Paths.APIToken)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/schedule", authMiddleware(token, srv.handleSchedule))
	mux.HandleFunc("/api/history", authMiddleware(token, srv.handleHistory))
	mux.HandleFunc("/api/reconcile", authMiddleware(token, srv.handleReconcile))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	payload := statusPayload{
		Running:     status.Running,
		StateDBPath: status.StateDBPath,
		LockFile:    status.LockFilePath,
		LastError:   status.Workflow.LastError,
	}
	if !status.Workflow.NextPassAt.IsZero() {
		next := status.Workflow.NextPassAt
		payload.NextPassAt = &next
	}
	if report := status.Workflow.LastPass; report != nil {
		payload.LastPass = &passPayload{
			PassID:    report.PassID,
			TermID:    report.TermID,
			StartedAt: report.StartedAt,
			DurationS: report.Duration.Seconds(),
			Created:   report.Stats.Created,
			Replaced:  report.Stats.Replaced,
			Updated:   report.Stats.Updated,
			Canceled:  report.Stats.Canceled,
			Skipped:   report.Stats.Skipped,
			Frozen:    report.Stats.Frozen,
			Failed:    report.Stats.Failed,
			MailSent:  report.MailSent,
			Errors:    report.Errors,
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rows, err := s.daemon.store.ListActiveSeries(r.Context(), s.daemon.cfg.Term.CurrentID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload := schedulePayload{Series: make([]seriesPayload, 0, len(rows))}
	for _, row := range rows {
		payload.Series = append(payload.Series, seriesPayload{
			SectionID:     row.SectionID,
			PatternID:     row.PatternID,
			SeriesID:      row.SeriesID,
			Title:         row.Title,
			RoomID:        row.RoomID,
			MeetingDays:   row.MeetingDays,
			StartDate:     row.StartDate,
			EndDate:       row.EndDate,
			StartTime:     row.StartTime,
			EndTime:       row.EndTime,
			RecordingType: row.RecordingType,
			PublishType:   row.PublishType,
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	termID := s.daemon.cfg.Term.CurrentID

	var entries []*store.HistoryEntry
	var err error
	if sectionID := strings.TrimSpace(r.URL.Query().Get("section")); sectionID != "" {
		entries, err = s.daemon.store.HistoryForSection(r.Context(), termID, sectionID)
	} else {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
				limit = parsed
			}
		}
		entries, err = s.daemon.store.RecentHistory(r.Context(), termID, limit)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload := historyPayload{Entries: make([]historyEntryPayload, 0, len(entries))}
	for _, entry := range entries {
		payload.Entries = append(payload.Entries, historyEntryPayload{
			ID:          entry.ID,
			SectionID:   entry.SectionID,
			PatternID:   entry.PatternID,
			FieldName:   entry.FieldName,
			ValueOld:    entry.ValueOld,
			ValueNew:    entry.ValueNew,
			RequestedBy: entry.RequestedBy,
			Status:      string(entry.Status),
			CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.daemon.TriggerReconcile()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "pass requested"})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Warn("encode api response failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
