package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type windowRequest struct {
	Resource string `json:"resource,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
}

type alert struct {
	Timestamp time.Time `json:"timestamp"`
	Resource  string    `json:"resource_id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Category  string    `json:"category,omitempty"`
}

type metric struct {
	Time     time.Time `json:"time"`
	Resource string    `json:"resource_id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
	Severity string    `json:"severity,omitempty"`
	Value    float64   `json:"value"`
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/alerts", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeWindow(w, r)
		if !ok {
			return
		}
		resource := req.Resource
		if resource == "" {
			resource = "PRODDB1"
		}
		now := time.Now()
		out := make([]alert, 0, 30)
		for i := 0; i < 30; i++ {
			severity := "WARNING"
			if i%3 == 0 {
				severity = "CRITICAL"
			}
			out = append(out, alert{
				Timestamp: now.Add(-time.Duration(30-i) * time.Minute),
				Resource:  resource,
				Severity:  severity,
				Message:   "ORA-01653: unable to extend table SALES.ORDERS by 8192 in tablespace USERS",
				Category:  "tablespace",
			})
		}
		writeJSON(w, map[string]any{"alerts": out})
	})

	mux.HandleFunc("/api/v1/metrics", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeWindow(w, r)
		if !ok {
			return
		}
		resource := req.Resource
		if resource == "" {
			resource = "PRODDB1"
		}
		now := time.Now()
		writeJSON(w, map[string]any{"metrics": []metric{
			{Time: now.Add(-10 * time.Minute), Resource: resource, Name: "tablespace_used_pct", Category: "tablespace", Value: 97.4},
			{Time: now.Add(-5 * time.Minute), Resource: resource, Name: "tablespace_used_pct", Category: "tablespace", Value: 98.9},
			{Time: now.Add(-1 * time.Minute), Resource: resource, Name: "tablespace_used_pct", Category: "tablespace", Severity: "CRITICAL", Value: 99.7},
		}})
	})

	logger := log.New(log.Writer(), "ingest-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8080",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8080")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func decodeWindow(w http.ResponseWriter, r *http.Request) (windowRequest, bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return windowRequest{}, false
	}
	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return windowRequest{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
