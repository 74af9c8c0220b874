package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/http/response"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/observability"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/service"
)

const maxListLimit = 1000

type UserHandler struct {
	userSvc service.UserServiceInterface
	logger  *slog.Logger
}

func NewUserHandler(userSvc service.UserServiceInterface, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{userSvc: userSvc, logger: logger.With("component", "user_handler")}
}

func (h *UserHandler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
}

func (h *UserHandler) audit(r *http.Request, event, id, action, outcome string) {
	observability.Audit(r, observability.AuditInput{
		EventName:  event,
		TargetType: "user",
		TargetID:   id,
		Action:     action,
		Outcome:    outcome,
	})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", repository.DefaultPage, 1, 1<<30)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", repository.DefaultPageSize, 1, repository.MaxPageSize)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	q := r.URL.Query()
	order, err := repository.ParseSortDirection(q.Get("order"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	sortBy := strings.TrimSpace(q.Get("sort"))
	if sortBy == "" {
		order = 0
	}
	res, err := h.userSvc.GetUsersWithPagination(r.Context(), service.ListUsersQuery{
		Page:      page,
		Limit:     limit,
		Status:    domain.UserStatus(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		Role:      domain.UserRole(strings.ToUpper(strings.TrimSpace(q.Get("role")))),
		SortBy:    sortBy,
		SortOrder: order,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, res)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateUserInput
	if err := decodeJSON(r, &in); err != nil {
		h.badRequest(w, r, err)
		return
	}
	u, err := h.userSvc.CreateUser(r.Context(), in)
	if err != nil {
		h.audit(r, "user.create", "", "create", "failure")
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit(r, "user.create", u.ID, "create", "success")
	response.JSON(w, r, http.StatusCreated, u)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.userSvc.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateUserInput
	if err := decodeJSON(r, &in); err != nil {
		h.badRequest(w, r, err)
		return
	}
	u, err := h.userSvc.UpdateUser(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.userSvc.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit(r, "user.delete", id, "delete", "success")
	response.NoContent(w)
}

func (h *UserHandler) PromoteVIP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, err := h.userSvc.PromoteToVIP(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit(r, "user.promote_vip", id, "update_status", "success")
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) RecordLogin(w http.ResponseWriter, r *http.Request) {
	u, err := h.userSvc.RecordLogin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userSvc.GetUserStats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, stats)
}

func (h *UserHandler) Active(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0, 0, maxListLimit)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	users, err := h.userSvc.GetActiveUsers(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, users)
}

func (h *UserHandler) Recent(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", service.DefaultRecentDays, 1, 3650)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", repository.DefaultRecentLimit, 1, maxListLimit)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	users, err := h.userSvc.FindRecentActiveUsers(r.Context(), days, limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, users)
}

func (h *UserHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, _, err := queryFloat(r, "lat", true)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	lng, _, err := queryFloat(r, "lng", true)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	radius, ok, err := queryFloat(r, "radiusKm", false)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !ok {
		radius = service.DefaultNearbyRadiusKm
	}
	users, err := h.userSvc.FindNearbyUsers(r.Context(), lat, lng, radius)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, users)
}
