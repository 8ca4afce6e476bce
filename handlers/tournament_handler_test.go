package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/royale-tournaments/brackets"
	"github.com/Dosada05/royale-tournaments/handlers"
	"github.com/Dosada05/royale-tournaments/middleware"
	"github.com/Dosada05/royale-tournaments/models"
	"github.com/Dosada05/royale-tournaments/repositories"
	"github.com/Dosada05/royale-tournaments/routes"
	"github.com/Dosada05/royale-tournaments/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var secret = []byte("handler-test-secret")

type testServer struct {
	*httptest.Server
	svc services.TournamentService
	hub *brackets.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hub := brackets.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	svc := services.NewTournamentService(repositories.NewMemoryTournamentRepository(), hub, nil, logger)
	router := chi.NewRouter()
	routes.SetupRoutes(router,
		routes.Options{JWTSecret: secret, AllowedOrigins: []string{"*"}},
		handlers.NewTournamentHandler(svc),
		handlers.NewWebSocketHandler(hub, svc, nil, logger),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, svc: svc, hub: hub}
}

func token(t *testing.T, claims middleware.Claims) string {
	t.Helper()
	signed, err := middleware.SignToken(secret, claims)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return resp.StatusCode, out
}

func TestTournamentHTTPFlow(t *testing.T) {
	s := newTestServer(t)
	organizer := token(t, middleware.Claims{UserID: "o-1", Role: middleware.RoleOrganizer})
	otherOrganizer := token(t, middleware.Claims{UserID: "o-2", Role: middleware.RoleOrganizer})
	alphaCaptain := token(t, middleware.Claims{UserID: "p-1", Role: middleware.RolePlayer, CaptainOf: []string{"alpha"}})

	create := map[string]any{"name": "Night Cup", "mode": "squad", "number_of_games": 1}
	if status, _ := s.do(t, http.MethodPost, "/tournaments", "", create); status != http.StatusUnauthorized {
		t.Fatalf("anonymous create status = %d", status)
	}
	if status, _ := s.do(t, http.MethodPost, "/tournaments", alphaCaptain, create); status != http.StatusForbidden {
		t.Fatalf("player create status = %d", status)
	}
	if status, body := s.do(t, http.MethodPost, "/tournaments", organizer, `{"name":"x","colour":"red"}`); status != http.StatusBadRequest || body["error"] != "bad_request" {
		t.Fatalf("unknown field status = %d body = %v", status, body)
	}

	status, body := s.do(t, http.MethodPost, "/tournaments", organizer, create)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d body = %v", status, body)
	}
	id := body["tournament"].(map[string]any)["id"].(string)
	base := "/tournaments/" + id

	if status, _ := s.do(t, http.MethodPost, base+"/registrations", alphaCaptain, map[string]any{"team_id": "alpha"}); status != http.StatusCreated {
		t.Fatalf("captain registration status = %d", status)
	}
	status, body = s.do(t, http.MethodPost, base+"/registrations", alphaCaptain, map[string]any{"team_id": "bravo"})
	if status != http.StatusForbidden || body["error"] != "cannot_act_for_team" {
		t.Fatalf("foreign registration status = %d body = %v", status, body)
	}
	if status, _ := s.do(t, http.MethodPost, base+"/registrations", organizer, map[string]any{"team_id": "bravo"}); status != http.StatusCreated {
		t.Fatalf("organizer registration status = %d", status)
	}
	status, body = s.do(t, http.MethodPost, base+"/registrations", alphaCaptain, map[string]any{"team_id": "alpha"})
	if status != http.StatusConflict || body["error"] != "already_registered" {
		t.Fatalf("duplicate registration status = %d body = %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, base+"/lock", otherOrganizer, nil)
	if status != http.StatusForbidden || body["error"] != "not_tournament_organizer" {
		t.Fatalf("foreign lock status = %d body = %v", status, body)
	}
	if status, _ := s.do(t, http.MethodPost, base+"/lock", organizer, nil); status != http.StatusOK {
		t.Fatalf("lock status = %d", status)
	}
	status, body = s.do(t, http.MethodPost, base+"/lock", organizer, nil)
	if status != http.StatusBadRequest || body["error"] != "already_locked" {
		t.Fatalf("second lock status = %d body = %v", status, body)
	}
	if details, _ := body["details"].(map[string]any); details["current_status"] != "locked" {
		t.Fatalf("lock details = %v", body["details"])
	}

	results := map[string]any{"results": []map[string]any{
		{"team_id": "alpha", "placement": 1, "kills": 4},
		{"team_id": "bravo", "placement": 2, "kills": 1},
	}}
	status, body = s.do(t, http.MethodPut, base+"/games/1/results", organizer, results)
	if status != http.StatusOK || body["status"] != string(models.StatusCompleted) {
		t.Fatalf("finals result status = %d body = %v", status, body)
	}

	status, body = s.do(t, http.MethodGet, base+"/standings", "", nil)
	if status != http.StatusOK || len(body["published_games"].([]any)) != 0 {
		t.Fatalf("standings before publish = %d %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, base+"/publish", organizer, nil)
	if status != http.StatusOK {
		t.Fatalf("publish status = %d body = %v", status, body)
	}
	status, body = s.do(t, http.MethodPost, base+"/publish", organizer, nil)
	if status != http.StatusConflict || body["error"] != "nothing_to_publish" {
		t.Fatalf("second publish status = %d body = %v", status, body)
	}

	_, body = s.do(t, http.MethodGet, base+"/standings", "", nil)
	leader := body["standings"].([]any)[0].(map[string]any)
	if leader["team_id"] != "alpha" || leader["total_points"] != float64(16) {
		t.Fatalf("published leader = %v", leader)
	}

	status, body = s.do(t, http.MethodGet, "/tournaments/missing", "", nil)
	if status != http.StatusNotFound || body["error"] != "tournament_not_found" {
		t.Fatalf("missing tournament status = %d body = %v", status, body)
	}
	status, body = s.do(t, http.MethodGet, "/tournaments?limit=abc", "", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d body = %v", status, body)
	}
	status, body = s.do(t, http.MethodGet, "/tournaments?organizer_id=o-1", "", nil)
	if status != http.StatusOK || len(body["tournaments"].([]any)) != 1 {
		t.Fatalf("list status = %d body = %v", status, body)
	}
}

func TestDeleteTournamentHTTP(t *testing.T) {
	s := newTestServer(t)
	organizer := token(t, middleware.Claims{UserID: "o-1", Role: middleware.RoleOrganizer})
	otherOrganizer := token(t, middleware.Claims{UserID: "o-2", Role: middleware.RoleOrganizer})
	admin := token(t, middleware.Claims{UserID: "a-1", Role: middleware.RoleAdmin})

	newTournament := func() string {
		status, body := s.do(t, http.MethodPost, "/tournaments", organizer, map[string]any{"name": "Night Cup", "mode": "squad", "number_of_games": 1})
		if status != http.StatusCreated {
			t.Fatalf("create status = %d body = %v", status, body)
		}
		return "/tournaments/" + body["tournament"].(map[string]any)["id"].(string)
	}

	base := newTournament()
	if status, _ := s.do(t, http.MethodDelete, base, "", nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous delete status = %d", status)
	}
	status, body := s.do(t, http.MethodDelete, base, otherOrganizer, nil)
	if status != http.StatusForbidden || body["error"] != "not_tournament_organizer" {
		t.Fatalf("foreign delete status = %d body = %v", status, body)
	}
	if status, _ := s.do(t, http.MethodDelete, base, organizer, nil); status != http.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}
	status, body = s.do(t, http.MethodGet, base, "", nil)
	if status != http.StatusNotFound || body["error"] != "tournament_not_found" {
		t.Fatalf("get after delete status = %d body = %v", status, body)
	}

	locked := newTournament()
	if status, _ := s.do(t, http.MethodPost, locked+"/registrations", organizer, map[string]any{"team_id": "alpha"}); status != http.StatusCreated {
		t.Fatalf("registration status = %d", status)
	}
	if status, _ := s.do(t, http.MethodPost, locked+"/lock", organizer, nil); status != http.StatusOK {
		t.Fatalf("lock status = %d", status)
	}
	status, body = s.do(t, http.MethodDelete, locked, admin, nil)
	if status != http.StatusBadRequest || body["error"] != "invalid_phase" {
		t.Fatalf("delete locked status = %d body = %v", status, body)
	}
}

func TestWebSocketReceivesScoreboardUpdates(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tour, err := s.svc.CreateTournament(ctx, "o-1", services.CreateTournamentInput{Name: "Live Cup", Mode: models.ModeDuo, NumberOfGames: 2})
	if err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	for _, team := range []string{"alpha", "bravo"} {
		if _, err := s.svc.RegisterTeam(ctx, tour.ID, services.RegisterTeamInput{TeamID: team}); err != nil {
			t.Fatalf("RegisterTeam: %v", err)
		}
	}
	if _, err := s.svc.Lock(ctx, tour.ID); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/tournaments/" + tour.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg brackets.WebSocketMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("initial message: %v", err)
	}
	if msg.Type != brackets.MessageScoresPublished {
		t.Fatalf("initial message type = %s", msg.Type)
	}

	room := brackets.RoomForTournament(tour.ID)
	for deadline := time.Now().Add(2 * time.Second); s.hub.ClientsInRoom(room) == 0; {
		if time.Now().After(deadline) {
			t.Fatalf("client never joined %s", room)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := s.svc.RecordFinalsGameResult(ctx, tour.ID, 1, []services.ResultInput{
		{TeamID: "bravo", Placement: 1, Kills: 2},
		{TeamID: "alpha", Placement: 2},
	}); err != nil {
		t.Fatalf("RecordFinalsGameResult: %v", err)
	}
	if _, err := s.svc.PublishScores(ctx, tour.ID); err != nil {
		t.Fatalf("PublishScores: %v", err)
	}

	seen := map[string]bool{}
	for !seen[brackets.MessageScoresPublished] {
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read update (seen %v): %v", seen, err)
		}
		seen[msg.Type] = true
	}
	if !seen[brackets.MessageGameRecorded] {
		t.Fatalf("game recorded update missing, got %v", seen)
	}
	payload := msg.Payload.(map[string]any)
	if published := payload["published"].([]any); len(published) != 1 || published[0] != float64(1) {
		t.Fatalf("published payload = %v", payload)
	}
}

func TestWebSocketUnknownTournament(t *testing.T) {
	s := newTestServer(t)
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/tournaments/nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("dial to unknown tournament succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("handshake response = %v", resp)
	}
}
