package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes returns the router for every relay endpoint. Requests with a method
// a route does not accept get 405 from the router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", HealthHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/ws/room/{room_id:-?[0-9]+}/user/{user}", s.RoomHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws/ping", s.PingHandler).Methods(http.MethodGet)
	r.HandleFunc("/views", s.ViewsHandler).Methods(http.MethodGet)
	r.HandleFunc("/reset", s.ResetHandler).Methods(http.MethodPost)
	r.HandleFunc("/stats", s.StatsHandler).Methods(http.MethodGet)
	r.HandleFunc("/test", TestPageHandler).Methods(http.MethodGet)
	return r
}
