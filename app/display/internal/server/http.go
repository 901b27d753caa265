package server

import (
	"encoding/json"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/gorilla/mux"

	"github.com/iWorld-y/intel_radar/app/display/internal/conf"
	"github.com/iWorld-y/intel_radar/app/display/internal/service"
)

func NewHTTPServer(c *conf.Server, s *service.DisplayService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != "" {
		if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)

	srv.HandleFunc("/api/register", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !requirePost(w, r) {
			return
		}
		var req service.RegisterReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.BadRequest("INVALID_BODY", err.Error()))
			return
		}
		reply, err := s.Register(r.Context(), &req)
		writeJSON(w, reply, err)
	})

	srv.HandleFunc("/api/login", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !requirePost(w, r) {
			return
		}
		var req service.LoginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.BadRequest("INVALID_BODY", err.Error()))
			return
		}
		reply, err := s.Login(r.Context(), &req)
		writeJSON(w, reply, err)
	})

	srv.HandleFunc("/api/reports", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q := r.URL.Query()
		reply, err := s.ListReports(r.Context(), q.Get("organization"),
			intParam(q.Get("page"), 1), intParam(q.Get("page_size"), 10))
		writeJSON(w, reply, err)
	})

	srv.HandleFunc("/api/reports/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			writeError(w, errors.BadRequest("INVALID_ID", "report id must be an integer"))
			return
		}
		reply, err := s.GetReport(r.Context(), id)
		writeJSON(w, reply, err)
	})

	srv.HandleFunc("/api/opportunities", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q := r.URL.Query()
		reply, err := s.ListOpportunities(r.Context(), q.Get("organization"), q.Get("status"),
			intParam(q.Get("page"), 1), intParam(q.Get("page_size"), 10))
		writeJSON(w, reply, err)
	})

	srv.HandleFunc("/api/opportunities/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		reply, err := s.GetOpportunity(r.Context(), mux.Vars(r)["id"])
		writeJSON(w, reply, err)
	})

	srv.HandleFunc("/api/opportunities/{id}/status", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !requirePost(w, r) {
			return
		}
		var req service.UpdateStatusReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.BadRequest("INVALID_BODY", err.Error()))
			return
		}
		reply, err := s.UpdateOpportunityStatus(r.Context(), mux.Vars(r)["id"], &req)
		writeJSON(w, reply, err)
	})

	srv.HandleFunc("/api/scan", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !requirePost(w, r) {
			return
		}
		reply, err := s.TriggerScan(r.Context())
		writeJSON(w, reply, err)
	})

	return srv
}

func requirePost(w nethttp.ResponseWriter, r *nethttp.Request) bool {
	if r.Method != nethttp.MethodPost {
		writeError(w, errors.New(nethttp.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST"))
		return false
	}
	return true
}

func intParam(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func writeJSON(w nethttp.ResponseWriter, reply interface{}, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reply)
}

func writeError(w nethttp.ResponseWriter, err error) {
	se := errors.FromError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(se.Code))
	json.NewEncoder(w).Encode(map[string]string{
		"reason":  se.Reason,
		"message": se.Message,
	})
}
