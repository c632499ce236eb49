package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/squery/internal/game"
	"github.com/woozymasta/squery/internal/models"
	"github.com/woozymasta/squery/internal/vars"
	"github.com/woozymasta/squery/pkg/ssq"
)

const maxSnapshotsLimit = 100

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryStatus maps a query failure to an HTTP status.
func queryStatus(err error) int {
	switch {
	case errors.Is(err, ssq.ErrTimeout), errors.Is(err, ssq.ErrNoEndpoint):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// addressParam reads and normalizes the "address" query parameter.
func addressParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("address")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing address")
		return "", false
	}

	address, err := game.NormalizeAddress(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}

	return address, true
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Info())
}

// handlePlayers performs a live A2S_PLAYER query.
// Query params: ?address=1.2.3.4:27015
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}

	players, err := s.queryPlayers(r.Context(), address)
	if err != nil {
		log.Debug().Err(err).Str("address", address).Msg("Live player query failed")
		writeError(w, queryStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.Snapshot{Address: address, Players: players})
}

// handleInfo performs a live A2S_INFO query.
// Query params: ?address=1.2.3.4:27015
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}

	info, err := s.queryInfo(address)
	if err != nil {
		log.Debug().Err(err).Str("address", address).Msg("Live info query failed")
		writeError(w, http.StatusGatewayTimeout, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// handleServers returns all stored servers.
func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	servers, err := s.storage.GetServers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if servers == nil {
		servers = []models.Server{}
	}

	writeJSON(w, http.StatusOK, servers)
}

// handleServer returns one stored server.
// Query params: ?address=1.2.3.4:27015
func (s *Server) handleServer(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}

	server, err := s.storage.GetServer(address)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch server")
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if server == nil {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}

	writeJSON(w, http.StatusOK, server)
}

// handleDeleteServer drops a stored server with its snapshots.
// Query params: ?address=1.2.3.4:27015
func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}

	found, err := s.storage.DeleteServer(address)
	if err != nil {
		log.Error().Err(err).Str("address", address).Msg("Failed to delete server")
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}

	log.Info().Str("address", address).Msg("Server deleted")
	w.WriteHeader(http.StatusNoContent)
}

// handleSnapshots returns the most recent snapshots of a server.
// Query params: ?address=1.2.3.4:27015&limit=10
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxSnapshotsLimit)
	}

	snaps, err := s.storage.GetSnapshots(address, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch snapshots")
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if snaps == nil {
		snaps = []models.Snapshot{}
	}

	writeJSON(w, http.StatusOK, snaps)
}
