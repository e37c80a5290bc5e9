package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chronodrachma/verushash/pkg/core/consensus"
	"github.com/chronodrachma/verushash/pkg/core/pbaas"
	"github.com/chronodrachma/verushash/pkg/core/types"
	"github.com/chronodrachma/verushash/pkg/metrics"
	"github.com/chronodrachma/verushash/pkg/store"
	"github.com/chronodrachma/verushash/pkg/verushash"
)

// maxBody bounds request bodies; a header plus a large solution fits easily.
const maxBody = 1 << 20

// HashRequest is the body of POST /hash/{variant}.
type HashRequest struct {
	Data string `json:"data"` // hex
}

// HashResponse is returned by POST /hash/{variant}.
type HashResponse struct {
	Variant   string `json:"variant"`
	Digest    string `json:"digest"`
	Decision  string `json:"decision,omitempty"`
	Canonical string `json:"canonical,omitempty"` // hex, only when the buffer was canonicalized
	Cached    bool   `json:"cached"`
}

type Server struct {
	engines  *verushash.Engines
	journal  store.Journal
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	cache    *lru.Cache[string, HashResponse]
	log      *zap.Logger
	router   *mux.Router
}

// Options carries the optional collaborators of a Server. Nil fields
// disable the corresponding feature.
type Options struct {
	Journal   store.Journal
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	CacheSize int
	Logger    *zap.Logger
}

func NewServer(engines *verushash.Engines, opts Options) (*Server, error) {
	s := &Server{
		engines:  engines,
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		log:      opts.Logger,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if opts.CacheSize > 0 {
		c, err := lru.New[string, HashResponse](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("digest cache: %w", err)
		}
		s.cache = c
	}

	r := mux.NewRouter()
	r.HandleFunc("/hash/{variant}", s.handleHash).Methods(http.MethodPost)
	r.HandleFunc("/record/{digest}", s.handleRecord).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(addr string) error {
	s.log.Info("rpc listening", zap.String("addr", addr))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// POST /hash/{variant}
// Body: {"data": "<hex>"}
func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	variant, err := consensus.ParseVariant(mux.Vars(r)["variant"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("failed to read body"))
		return
	}
	var req HashRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}
	input, err := hex.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("data is not valid hex"))
		return
	}

	key := variant.String() + ":" + req.Data
	if s.cache != nil {
		if resp, ok := s.cache.Get(key); ok {
			resp.Cached = true
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	resp, err := s.dispatch(variant, input)
	if err != nil {
		switch {
		case errors.Is(err, verushash.ErrEmptyInput), errors.Is(err, verushash.ErrShortHeader):
			writeError(w, http.StatusBadRequest, err)
		default:
			s.log.Error("hash failed", zap.Stringer("variant", variant), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	if s.cache != nil {
		s.cache.Add(key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) dispatch(variant consensus.Variant, input []byte) (HashResponse, error) {
	resp := HashResponse{Variant: variant.String()}
	start := time.Now()

	if variant != consensus.VariantV2b2 {
		digest, err := s.engines.HashVariant(variant, input)
		if err != nil {
			return resp, err
		}
		s.metrics.ObserveDispatch(resp.Variant, "", time.Since(start))
		resp.Digest = digest.ReverseHex()
		return resp, nil
	}

	work := bytes.Clone(input)
	digest, decision, err := s.engines.HashWithDecision(work)
	if err != nil {
		return resp, err
	}
	s.metrics.ObserveDispatch(resp.Variant, decision.String(), time.Since(start))
	resp.Digest = digest.ReverseHex()
	resp.Decision = decision.String()

	rec := &store.Record{
		Digest:   digest,
		Variant:  resp.Variant,
		Decision: resp.Decision,
		Input:    input,
		Time:     time.Now().UTC(),
	}
	if decision == pbaas.Verified {
		resp.Canonical = hex.EncodeToString(work)
		rec.Canonical = work
	}
	if s.journal != nil {
		// Rejected calls share the sentinel digest, so only the latest is kept.
		if err := s.journal.SaveRecord(rec); err != nil {
			s.log.Warn("journal write failed", zap.String("digest", resp.Digest), zap.Error(err))
		}
	}
	if decision == pbaas.Rejected {
		s.log.Debug("merged-mining commitment rejected", zap.Int("len", len(input)))
	}
	return resp, nil
}

// GET /record/{digest}
// digest is given in display (reversed) hex, as returned by /hash.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, errors.New("journal disabled"))
		return
	}
	digest, err := types.HashFromReverseHex(mux.Vars(r)["digest"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid digest"))
		return
	}

	rec, err := s.journal.GetRecord(digest)
	if errors.Is(err, store.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := struct {
		Digest    string    `json:"digest"`
		Variant   string    `json:"variant"`
		Decision  string    `json:"decision"`
		Input     string    `json:"input"`
		Canonical string    `json:"canonical,omitempty"`
		Time      time.Time `json:"time"`
	}{
		Digest:    rec.Digest.ReverseHex(),
		Variant:   rec.Variant,
		Decision:  rec.Decision,
		Input:     hex.EncodeToString(rec.Input),
		Canonical: hex.EncodeToString(rec.Canonical),
		Time:      rec.Time,
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Native       bool              `json:"native"`
		CPU          string            `json:"cpu"`
		CPUSupported bool              `json:"cpu_supported"`
		Variants     []string          `json:"variants"`
		Cached       int               `json:"cached"`
		Counts       map[string]uint64 `json:"counts,omitempty"`
	}{
		Native:       consensus.Native,
		CPU:          consensus.CPUBrand(),
		CPUSupported: consensus.CPUSupported(),
	}
	for _, v := range consensus.Variants {
		resp.Variants = append(resp.Variants, v.String())
	}
	if s.cache != nil {
		resp.Cached = s.cache.Len()
	}
	if s.journal != nil {
		counts, err := s.journal.Counts()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp.Counts = counts
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
