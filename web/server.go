// Package web serves an instrument over a JSON HTTP API.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/wblanchett/overtone"
)

type (
	// Server exposes one instrument over HTTP. The instrument expects its
	// callers to take turns, so the server serializes all requests.
	Server struct {
		mu  sync.Mutex
		ins *overtone.Instrument
	}

	// State is the wire form of an instrument.
	State struct {
		Playing     bool             `json:"playing"`
		Fundamental FundamentalState `json:"fundamental"`
		Partials    []PartialState   `json:"partials"`
	}

	FundamentalState struct {
		Frequency float64 `json:"frequency"`
		Amplitude float64 `json:"amplitude"`
		Phase     float64 `json:"phase"`
	}

	PartialState struct {
		Degree    int     `json:"degree"`
		Frequency float64 `json:"frequency"`
		Detune    float64 `json:"detune"`
		Amplitude float64 `json:"amplitude"`
		Phase     float64 `json:"phase"`
	}

	// PitchRequest retunes the instrument, by note name or by frequency.
	PitchRequest struct {
		Note      string   `json:"note,omitempty"`
		Frequency *float64 `json:"frequency,omitempty"`
	}

	// FundamentalPatch updates the fundamental fields it carries.
	FundamentalPatch struct {
		Frequency *float64 `json:"frequency,omitempty"`
		Amplitude *float64 `json:"amplitude,omitempty"`
		Phase     *float64 `json:"phase,omitempty"`
	}

	// PartialRequest adds a partial. A missing amplitude falls back to the
	// instrument default.
	PartialRequest struct {
		Degree    int      `json:"degree"`
		Detune    float64  `json:"detune,omitempty"`
		Amplitude *float64 `json:"amplitude,omitempty"`
		Phase     float64  `json:"phase,omitempty"`
	}

	// PartialPatch updates the partial fields it carries.
	PartialPatch struct {
		Detune    *float64 `json:"detune,omitempty"`
		Amplitude *float64 `json:"amplitude,omitempty"`
		Phase     *float64 `json:"phase,omitempty"`
	}

	// PresetRequest saves the current instrument state as a user preset.
	PresetRequest struct {
		Name string `json:"name"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}
)

func NewServer(ins *overtone.Instrument) *Server {
	return &Server{ins: ins}
}

// Handler returns the route table of the server.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/state", s.handleState).Methods("GET")
	router.HandleFunc("/play", s.handlePlay).Methods("POST")
	router.HandleFunc("/stop", s.handleStop).Methods("POST")
	router.HandleFunc("/pitch", s.handlePitch).Methods("PUT")
	router.HandleFunc("/fundamental", s.handleFundamental).Methods("PATCH")
	router.HandleFunc("/partials", s.handlePartials).Methods("GET")
	router.HandleFunc("/partials", s.handleAddPartial).Methods("POST")
	router.HandleFunc("/partials", s.handleRemoveAllPartials).Methods("DELETE")
	router.HandleFunc("/partials/{degree}", s.handleGetPartial).Methods("GET")
	router.HandleFunc("/partials/{degree}", s.handlePatchPartial).Methods("PATCH")
	router.HandleFunc("/partials/{degree}", s.handleRemovePartial).Methods("DELETE")
	router.HandleFunc("/presets", s.handlePresets).Methods("GET")
	router.HandleFunc("/presets", s.handleSavePreset).Methods("POST")
	router.HandleFunc("/presets/{name}", s.handleApplyPreset).Methods("POST")
	return cors.Default().Handler(router)
}

// ListenAndServe serves the API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("listening on %v", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ins.Play()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ins.Stop()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePitch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var req PitchRequest
	if !decode(w, r, &req) {
		return
	}
	switch {
	case req.Note != "":
		if err := s.ins.SetPitch(req.Note); err != nil {
			writeError(w, err)
			return
		}
	case req.Frequency != nil:
		s.ins.SetFundamentalFrequency(*req.Frequency)
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "pitch request needs a note or a frequency"})
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleFundamental(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var req FundamentalPatch
	if !decode(w, r, &req) {
		return
	}
	if req.Frequency != nil {
		s.ins.SetFundamentalFrequency(*req.Frequency)
	}
	if req.Amplitude != nil {
		s.ins.SetFundamentalAmplitude(*req.Amplitude)
	}
	if req.Phase != nil {
		s.ins.SetFundamentalPhase(*req.Phase)
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePartials(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.state().Partials)
}

func (s *Server) handleAddPartial(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var req PartialRequest
	if !decode(w, r, &req) {
		return
	}
	opts := []overtone.PartialOption{overtone.WithDetune(req.Detune), overtone.WithPhase(req.Phase)}
	if req.Amplitude != nil {
		opts = append(opts, overtone.WithAmplitude(*req.Amplitude))
	}
	if err := s.ins.AddPartial(req.Degree, opts...); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.partialState(req.Degree))
}

func (s *Server) handleRemoveAllPartials(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ins.RemoveAllPartials()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPartial(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	degree, ok := pathDegree(w, r)
	if !ok {
		return
	}
	if _, err := s.ins.PartialFrequency(degree); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.partialState(degree))
}

func (s *Server) handlePatchPartial(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	degree, ok := pathDegree(w, r)
	if !ok {
		return
	}
	var req PartialPatch
	if !decode(w, r, &req) {
		return
	}
	if _, err := s.ins.PartialFrequency(degree); err != nil {
		writeError(w, err)
		return
	}
	if req.Detune != nil {
		if err := s.ins.SetPartialDetune(degree, *req.Detune); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Amplitude != nil {
		if err := s.ins.SetPartialAmplitude(degree, *req.Amplitude); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Phase != nil {
		if err := s.ins.SetPartialPhase(degree, *req.Phase); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.partialState(degree))
}

func (s *Server) handleRemovePartial(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	degree, ok := pathDegree(w, r)
	if !ok {
		return
	}
	if err := s.ins.RemovePartial(degree); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, overtone.LoadPresets())
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var req PresetRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "preset needs a name"})
		return
	}
	preset := s.ins.Preset(req.Name)
	if err := preset.SaveUser(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := mux.Vars(r)["name"]
	preset, ok := overtone.FindPreset(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("preset %q not found", name)})
		return
	}
	if err := preset.Apply(s.ins); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

// state snapshots the instrument. The caller holds the lock.
func (s *Server) state() State {
	st := State{
		Playing: s.ins.IsPlaying(),
		Fundamental: FundamentalState{
			Frequency: s.ins.FundamentalFrequency(),
			Amplitude: s.ins.FundamentalAmplitude(),
			Phase:     s.ins.FundamentalPhase(),
		},
		Partials: []PartialState{},
	}
	for _, degree := range s.ins.PartialDegrees() {
		st.Partials = append(st.Partials, s.partialState(degree))
	}
	return st
}

// partialState snapshots one partial that is known to exist.
func (s *Server) partialState(degree int) PartialState {
	frequency, _ := s.ins.PartialFrequency(degree)
	detune, _ := s.ins.PartialDetune(degree)
	amplitude, _ := s.ins.PartialAmplitude(degree)
	phase, _ := s.ins.PartialPhase(degree)
	return PartialState{
		Degree:    degree,
		Frequency: frequency,
		Detune:    detune,
		Amplitude: amplitude,
		Phase:     phase,
	}
}

func pathDegree(w http.ResponseWriter, r *http.Request) (int, bool) {
	degree, err := strconv.Atoi(mux.Vars(r)["degree"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("cannot parse partial degree: %v", err)})
		return 0, false
	}
	return degree, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("cannot decode request body: %v", err)})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusCode(err), ErrorResponse{Error: err.Error()})
}

// statusCode maps the instrument errors to HTTP statuses.
func statusCode(err error) int {
	switch {
	case errors.Is(err, overtone.ErrPartialNotFound):
		return http.StatusNotFound
	case errors.Is(err, overtone.ErrDuplicatePartial):
		return http.StatusConflict
	case errors.Is(err, overtone.ErrInvalidPartialDegree), errors.Is(err, overtone.ErrUnknownNoteName):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("cannot encode response: %v", err)
	}
}
