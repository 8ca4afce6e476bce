package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/royale-tournaments/middleware"
	"github.com/Dosada05/royale-tournaments/models"
	"github.com/Dosada05/royale-tournaments/repositories"
	"github.com/Dosada05/royale-tournaments/services"
	"github.com/go-chi/chi/v5"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

type resultsInput struct {
	Results []services.ResultInput `json:"results"`
}

type scheduleInput struct {
	PublishAt *time.Time `json:"publish_at"`
}

// requireOwner lets the tournament's organizer and admins through.
func (h *TournamentHandler) requireOwner(w http.ResponseWriter, r *http.Request, tournamentID string) bool {
	claims, err := middleware.GetClaimsFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return false
	}
	if claims.Role == middleware.RoleAdmin {
		return true
	}
	tournament, err := h.tournamentService.GetTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return false
	}
	if tournament.OrganizerID != claims.UserID {
		errorResponse(w, http.StatusForbidden, "not_tournament_organizer", map[string]any{"tournament_id": tournamentID})
		return false
	}
	return true
}

// CreateHandler godoc
// @Summary Create a tournament
// @Tags tournaments
// @Accept json
// @Produce json
// @Param body body services.CreateTournamentInput true "Tournament settings"
// @Success 201 {object} map[string]interface{} "Tournament created"
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, "authentication required to create tournament")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), organizerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler godoc
// @Summary Get a tournament
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Tournament not found"
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler godoc
// @Summary Delete a tournament
// @Description Only tournaments that are still open for registration can be deleted.
// @Tags tournaments
// @Param tournamentID path string true "Tournament ID"
// @Success 204
// @Failure 400 {object} map[string]interface{} "Registration is closed"
// @Failure 403 {object} map[string]interface{} "Not the tournament organizer"
// @Failure 404 {object} map[string]interface{} "Tournament not found"
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [delete]
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if !h.requireOwner(w, r, id) {
		return
	}

	if err := h.tournamentService.DeleteTournament(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHandler godoc
// @Summary List tournaments
// @Tags tournaments
// @Produce json
// @Param organizer_id query string false "Organizer ID"
// @Param status query string false "registration, locked, ongoing, completed"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /tournaments [get]
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListTournamentsFilter
	query := r.URL.Query()

	if organizerID := query.Get("organizer_id"); organizerID != "" {
		filter.OrganizerID = &organizerID
	}
	if statusStr := query.Get("status"); statusStr != "" {
		status := models.TournamentStatus(statusStr)
		filter.Status = &status
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = min(limit, 100)
		} else {
			badRequestResponse(w, errors.New("invalid limit query parameter"))
			return
		}
	} else {
		filter.Limit = 20
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		} else {
			badRequestResponse(w, errors.New("invalid offset query parameter"))
			return
		}
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StandingsHandler godoc
// @Summary Published standings
// @Description Returns standings over published finals games only.
// @Tags scoreboard
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} services.PublicScoreboard
// @Failure 404 {object} map[string]interface{}
// @Router /tournaments/{tournamentID}/standings [get]
func (h *TournamentHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	board, err := h.tournamentService.GetPublicStandings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, board, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LobbiesHandler godoc
// @Summary Qualifier groups
// @Tags qualifiers
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Router /tournaments/{tournamentID}/lobbies [get]
func (h *TournamentHandler) LobbiesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	env := jsonResponse{
		"plan":            tournament.QualifierPlan,
		"lobbies":         tournament.QualifierGroups,
		"qualified_teams": tournament.QualifiedTeams,
	}
	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RegisterTeamHandler godoc
// @Summary Register a team
// @Tags registrations
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param body body services.RegisterTeamInput true "Team"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Registration is closed or full"
// @Failure 403 {object} map[string]interface{} "Cannot act for this team"
// @Failure 409 {object} map[string]interface{} "Team already registered"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/registrations [post]
func (h *TournamentHandler) RegisterTeamHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input services.RegisterTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if !middleware.CanActForTeam(r.Context(), input.TeamID) {
		mapServiceErrorToHTTP(w, r, services.ErrCannotActForTeam)
		return
	}

	reg, err := h.tournamentService.RegisterTeam(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// WithdrawTeamHandler godoc
// @Summary Withdraw a team
// @Tags registrations
// @Param tournamentID path string true "Tournament ID"
// @Param teamID path string true "Team ID"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/registrations/{teamID} [delete]
func (h *TournamentHandler) WithdrawTeamHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if !middleware.CanActForTeam(r.Context(), teamID) {
		mapServiceErrorToHTTP(w, r, services.ErrCannotActForTeam)
		return
	}

	if err := h.tournamentService.WithdrawTeam(r.Context(), id, teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckInHandler godoc
// @Summary Check in a team
// @Tags registrations
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param teamID path string true "Team ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Check-in window is closed"
// @Failure 403 {object} map[string]interface{} "Cannot act for this team"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/registrations/{teamID}/check-in [post]
func (h *TournamentHandler) CheckInHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, "authentication required to check in")
		return
	}

	actor := services.Actor{UserID: userID, CanActForTeam: middleware.CanActForTeam(r.Context(), teamID)}
	reg, err := h.tournamentService.CheckIn(r.Context(), id, teamID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LockHandler godoc
// @Summary Lock registration
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Invalid status transition"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/lock [post]
func (h *TournamentHandler) LockHandler(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.tournamentService.Lock)
}

// UnlockHandler godoc
// @Summary Reopen registration
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/unlock [post]
func (h *TournamentHandler) UnlockHandler(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.tournamentService.Unlock)
}

func (h *TournamentHandler) statusChange(w http.ResponseWriter, r *http.Request, change func(context.Context, string) (*models.Tournament, error)) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if !h.requireOwner(w, r, id) {
		return
	}

	tournament, err := change(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateLobbiesHandler godoc
// @Summary Generate qualifier groups
// @Tags qualifiers
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 201 {object} models.LobbyPlan
// @Failure 400 {object} map[string]interface{} "Not enough teams"
// @Failure 409 {object} map[string]interface{} "Groups already generated"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/qualifiers [post]
func (h *TournamentHandler) GenerateLobbiesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if !h.requireOwner(w, r, id) {
		return
	}

	plan, err := h.tournamentService.GenerateQualifierLobbies(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"plan": plan}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordLobbyGameHandler godoc
// @Summary Qualifier group game results
// @Tags qualifiers
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param lobbyID path string true "Lobby ID"
// @Param gameID path string true "Game ID"
// @Param body body resultsInput true "Placements and kills"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/lobbies/{lobbyID}/games/{gameID}/results [put]
func (h *TournamentHandler) RecordLobbyGameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	lobbyID, err := getIDFromURL(r, "lobbyID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input resultsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if !h.requireOwner(w, r, id) {
		return
	}

	standings, err := h.tournamentService.RecordLobbyGameResult(r.Context(), id, lobbyID, gameID, input.Results)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ProcessLobbyHandler godoc
// @Summary Process a qualifier group
// @Tags qualifiers
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param order path int true "Group order"
// @Success 200 {object} services.QualificationSummary
// @Failure 400 {object} map[string]interface{} "Not every game is completed"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/qualifiers/{order}/process [post]
func (h *TournamentHandler) ProcessLobbyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	order, err := strconv.Atoi(chi.URLParam(r, "order"))
	if err != nil || order < 1 {
		badRequestResponse(w, errors.New("lobby order must be a positive integer"))
		return
	}
	if !h.requireOwner(w, r, id) {
		return
	}

	summary, err := h.tournamentService.ProcessQualifications(r.Context(), id, order)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, summary, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordFinalsGameHandler godoc
// @Summary Finals game results
// @Tags scoreboard
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param gameNumber path int true "Game number"
// @Param body body resultsInput true "Placements and kills"
// @Success 200 {object} services.FinalsUpdate
// @Failure 400 {object} map[string]interface{} "Game already published"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/games/{gameNumber}/results [put]
func (h *TournamentHandler) RecordFinalsGameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "gameNumber"))
	if err != nil {
		badRequestResponse(w, errors.New("game number must be an integer"))
		return
	}
	var input resultsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if !h.requireOwner(w, r, id) {
		return
	}

	update, err := h.tournamentService.RecordFinalsGameResult(r.Context(), id, number, input.Results)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, update, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PublishHandler godoc
// @Summary Publish results
// @Tags scoreboard
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} services.PublishResult
// @Failure 409 {object} map[string]interface{} "Nothing to publish"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/publish [post]
func (h *TournamentHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if !h.requireOwner(w, r, id) {
		return
	}

	result, err := h.tournamentService.PublishScores(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SchedulePublishHandler godoc
// @Summary Schedule publication
// @Description publish_at = null cancels the scheduled publication.
// @Tags scoreboard
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param body body scheduleInput true "Publication time"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/publish-schedule [put]
func (h *TournamentHandler) SchedulePublishHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input scheduleInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if !h.requireOwner(w, r, id) {
		return
	}

	tournament, err := h.tournamentService.SchedulePublish(r.Context(), id, input.PublishAt)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	env := jsonResponse{"tournament_id": tournament.ID, "scheduled_publish_at": tournament.ScheduledPublishAt}
	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetScoresHandler godoc
// @Summary Reset published results
// @Tags scoreboard
// @Param tournamentID path string true "Tournament ID"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/reset-scores [post]
func (h *TournamentHandler) ResetScoresHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if !h.requireOwner(w, r, id) {
		return
	}

	if err := h.tournamentService.ResetScores(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
