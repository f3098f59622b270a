package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kecarajocomer/internal/app"
	"kecarajocomer/internal/pantry"
	"kecarajocomer/internal/planner"
	"kecarajocomer/internal/prices"
	"kecarajocomer/internal/shopping"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultExpiringDays = 3
	defaultRecentPlans  = 4
	priceHistoryWindow  = 90 * 24 * time.Hour
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps application errors to status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound), errors.Is(err, app.ErrNoPlan), errors.Is(err, shopping.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func parseWeek(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (s *Server) handleListPantry(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.ListPantry(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if items == nil {
		items = []pantry.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

type pantryRequest struct {
	Name      string     `json:"name"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (s *Server) handleAddPantryItem(w http.ResponseWriter, r *http.Request) {
	var req pantryRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "name and a positive quantity are required")
		return
	}
	item, err := s.app.AddPantryItem(r.Context(), pantry.Item{
		UserID:    UserID(r.Context()),
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleExpiring(w http.ResponseWriter, r *http.Request) {
	days := defaultExpiringDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = n
	}
	items, err := s.app.ExpiringItems(r.Context(), UserID(r.Context()), days, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if items == nil {
		items = []pantry.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleDeletePantryItem(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeletePantryItem(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type planRequest struct {
	WeekStart string                `json:"week_start"`
	Meals     []planner.PlannedMeal `json:"meals"`
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !decode(w, r, &req) {
		return
	}
	week, err := parseWeek(req.WeekStart, planner.GetNextMonday(s.now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "week_start must be YYYY-MM-DD")
		return
	}
	plan := &planner.MealPlan{UserID: UserID(r.Context()), WeekStart: week, Meals: req.Meals}
	if err := s.app.SavePlan(r.Context(), plan); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleRecentPlans(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentPlans
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	plans, err := s.app.RecentPlans(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if plans == nil {
		plans = []planner.MealPlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGenerateList(w http.ResponseWriter, r *http.Request) {
	week, err := parseWeek(r.URL.Query().Get("week"), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "week must be YYYY-MM-DD")
		return
	}
	stored, err := s.app.GenerateShoppingList(r.Context(), UserID(r.Context()), week)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleCurrentList(w http.ResponseWriter, r *http.Request) {
	stored, err := s.app.CurrentShoppingList(r.Context(), UserID(r.Context()), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	est, err := s.app.EstimateShoppingList(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type manualItemRequest struct {
	Nombre   string  `json:"nombre"`
	Cantidad float64 `json:"cantidad"`
	Unidad   string  `json:"unidad"`
}

func (s *Server) handleAddManualItem(w http.ResponseWriter, r *http.Request) {
	var req manualItemRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Nombre) == "" {
		writeError(w, http.StatusBadRequest, "nombre is required")
		return
	}
	item, err := s.app.AddManualItem(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.Nombre, req.Cantidad, req.Unidad)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type purchasedRequest struct {
	Comprado *bool `json:"comprado"`
}

func (s *Server) handleSetPurchased(w http.ResponseWriter, r *http.Request) {
	var req purchasedRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Comprado == nil {
		writeError(w, http.StatusBadRequest, "comprado is required")
		return
	}
	stored, err := s.app.SetItemPurchased(r.Context(), UserID(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), *req.Comprado)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	stored, err := s.app.RemoveShoppingItem(r.Context(), UserID(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteShoppingList(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordPrice(w http.ResponseWriter, r *http.Request) {
	var o prices.Observation
	if !decode(w, r, &o) {
		return
	}
	if o.Product == "" || o.Store == "" || o.Price < 0 {
		writeError(w, http.StatusBadRequest, "product, store and a non-negative price are required")
		return
	}
	saved, err := s.app.RecordPrice(r.Context(), o)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handlePriceReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.app.PriceReport(r.Context(), chi.URLParam(r, "product"), s.now().Add(-priceHistoryWindow))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.app.ListRecipes(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

type suggestRequest struct {
	Preferences string `json:"preferences"`
	Servings    int    `json:"servings"`
	Save        bool   `json:"save"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := s.app.SuggestRecipe(r.Context(), UserID(r.Context()), req.Preferences, req.Servings, req.Save)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type importRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decode(w, r, &req) {
		return
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		writeError(w, http.StatusBadRequest, "url must be http or https")
		return
	}
	rec, err := s.app.ImportRecipe(r.Context(), req.URL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type cookedRequest struct {
	Servings int `json:"servings"`
}

func (s *Server) handleCooked(w http.ResponseWriter, r *http.Request) {
	var req cookedRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	missing, err := s.app.MarkCooked(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.Servings)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sin_stock": missing})
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteRecipe(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
