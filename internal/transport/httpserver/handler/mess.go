package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mess-manager-go/internal/domain/balance"
	messdomain "mess-manager-go/internal/domain/mess"
	"mess-manager-go/internal/transport/httpserver/middleware"
)

type createMessRequest struct {
	MessID  string `json:"messId"`
	Name    string `json:"name"`
	JoinKey string `json:"joinKey"`
	UserID  string `json:"userId"`
}

type joinMessRequest struct {
	MessID         string  `json:"messId"`
	JoinKey        string  `json:"joinKey"`
	UserID         string  `json:"userId"`
	UserName       string  `json:"userName"`
	DefaultDeposit float64 `json:"defaultDeposit"`
}

type messDetailsRequest struct {
	MessID string `json:"messId"`
	UserID string `json:"userId"`
}

type setMealRequest struct {
	MessID    string          `json:"messId"`
	UserID    string          `json:"userId"`
	MemberUID string          `json:"memberUid"`
	DateKey   string          `json:"dateKey"`
	NewCount  json.RawMessage `json:"newCount"`
}

type addExpenseRequest struct {
	MessID      string           `json:"messId"`
	UserID      string           `json:"userId"`
	NewExpenses []expensePayload `json:"newExpenses"`
}

type expensePayload struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type addDepositRequest struct {
	MessID        string  `json:"messId"`
	UserID        string  `json:"userId"`
	MemberUID     string  `json:"memberUid"`
	DepositAmount float64 `json:"depositAmount"`
}

type messResponse struct {
	MessID   string `json:"messId"`
	Name     string `json:"name"`
	JoinKey  string `json:"joinKey,omitempty"`
	AdminUID string `json:"adminUid"`
}

func (h *Handlers) CreateMess(w http.ResponseWriter, r *http.Request) {
	var req createMessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := h.actingUser(w, r, req.UserID)
	if !ok {
		return
	}

	result, err := h.Mess.Create(r.Context(), messdomain.CreateInput{
		MessID:   req.MessID,
		Name:     req.Name,
		JoinKey:  req.JoinKey,
		UserID:   user.ID,
		UserName: user.Name,
	})
	if err != nil {
		h.writeMessError(w, "mess.create", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, messResponse{
		MessID:   result.ID,
		Name:     result.Name,
		JoinKey:  result.JoinKey,
		AdminUID: result.AdminUID,
	})
}

func (h *Handlers) JoinMess(w http.ResponseWriter, r *http.Request) {
	var req joinMessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.MessID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "messId is required")
		return
	}

	user, ok := h.actingUser(w, r, req.UserID)
	if !ok {
		return
	}

	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = user.Name
	}

	result, err := h.Mess.Join(r.Context(), messdomain.JoinInput{
		MessID:         req.MessID,
		JoinKey:        req.JoinKey,
		UserID:         user.ID,
		UserName:       name,
		DefaultDeposit: req.DefaultDeposit,
	})
	if err != nil {
		h.writeMessError(w, "mess.join", err, "user_id", user.ID, "mess_id", req.MessID)
		return
	}

	writeJSON(w, http.StatusOK, messResponse{
		MessID:   result.ID,
		Name:     result.Name,
		AdminUID: result.AdminUID,
	})
}

func (h *Handlers) MessDetails(w http.ResponseWriter, r *http.Request) {
	var req messDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.MessID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "messId is required")
		return
	}

	user, ok := h.actingUser(w, r, req.UserID)
	if !ok {
		return
	}

	doc, err := h.Mess.Details(r.Context(), req.MessID, user.ID)
	if err != nil {
		h.writeMessError(w, "mess.details", err, "user_id", user.ID, "mess_id", req.MessID)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handlers) SetMeal(w http.ResponseWriter, r *http.Request) {
	var req setMealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.MessID) == "" || strings.TrimSpace(req.MemberUID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "messId and memberUid are required")
		return
	}

	user, ok := h.actingUser(w, r, req.UserID)
	if !ok {
		return
	}

	count := coerceCount(req.NewCount)
	if err := h.Mess.SetMeal(r.Context(), req.MessID, user.ID, req.MemberUID, req.DateKey, count); err != nil {
		h.writeMessError(w, "mess.meal", err, "user_id", user.ID, "mess_id", req.MessID, "date_key", req.DateKey)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	var req addExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.MessID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "messId is required")
		return
	}
	if len(req.NewExpenses) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "newExpenses is required")
		return
	}

	user, ok := h.actingUser(w, r, req.UserID)
	if !ok {
		return
	}

	items := make([]messdomain.NewExpense, 0, len(req.NewExpenses))
	for _, item := range req.NewExpenses {
		items = append(items, messdomain.NewExpense{
			Description: item.Description,
			Amount:      item.Amount,
		})
	}

	created, err := h.Mess.AddExpenses(r.Context(), req.MessID, user.ID, items)
	if err != nil {
		h.writeMessError(w, "mess.expense", err, "user_id", user.ID, "mess_id", req.MessID)
		return
	}

	out := make([]messdomain.ExpenseDoc, 0, len(created))
	for _, expense := range created {
		out = append(out, messdomain.ExpenseDoc{
			ID:          expense.ID,
			Description: expense.Description,
			Amount:      expense.Amount,
			Date:        expense.Date,
			AddedBy:     expense.AddedBy,
		})
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"expenses": out})
}

func (h *Handlers) AddDeposit(w http.ResponseWriter, r *http.Request) {
	var req addDepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.MessID) == "" || strings.TrimSpace(req.MemberUID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "messId and memberUid are required")
		return
	}

	user, ok := h.actingUser(w, r, req.UserID)
	if !ok {
		return
	}

	if err := h.Mess.AddDeposit(r.Context(), req.MessID, user.ID, req.MemberUID, req.DepositAmount); err != nil {
		h.writeMessError(w, "mess.deposit", err, "user_id", user.ID, "mess_id", req.MessID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) MessSummary(w http.ResponseWriter, r *http.Request) {
	messID := strings.TrimSpace(r.URL.Query().Get("messId"))
	if messID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "messId is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	loc := time.Local
	if tz := r.URL.Query().Get("tz"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unknown tz")
			return
		}
		loc = parsed
	}

	now := time.Now().In(loc)
	month := balance.Month{Year: now.Year(), Month: now.Month(), Location: loc}
	if value := r.URL.Query().Get("year"); value != "" {
		year, err := strconv.Atoi(value)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "year must be a number")
			return
		}
		month.Year = year
	}
	if value := r.URL.Query().Get("month"); value != "" {
		m, err := strconv.Atoi(value)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "invalid_request", "month must be 1-12")
			return
		}
		month.Month = time.Month(m)
	}

	doc, err := h.Mess.Details(r.Context(), messID, user.ID)
	if err != nil {
		h.writeMessError(w, "mess.summary", err, "user_id", user.ID, "mess_id", messID)
		return
	}

	writeJSON(w, http.StatusOK, balance.Compute(*doc, month))
}

// actingUser resolves the authenticated user and rejects requests whose body
// claims a different identity. The body field is only there for wire
// compatibility with older clients.
func (h *Handlers) actingUser(w http.ResponseWriter, r *http.Request, bodyUserID string) (middleware.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return middleware.User{}, false
	}
	bodyUserID = strings.TrimSpace(bodyUserID)
	if bodyUserID != "" && bodyUserID != user.ID {
		writeError(w, http.StatusForbidden, "user_mismatch", "userId does not match token")
		return middleware.User{}, false
	}
	return user, true
}

func (h *Handlers) writeMessError(w http.ResponseWriter, op string, err error, fields ...interface{}) {
	switch {
	case errors.Is(err, messdomain.ErrMessNotFound):
		h.log.BusinessError(op+": mess not found", err, fields...)
		writeError(w, http.StatusNotFound, "mess_not_found", "mess not found")
	case errors.Is(err, messdomain.ErrMemberNotFound):
		h.log.BusinessError(op+": member not found", err, fields...)
		writeError(w, http.StatusNotFound, "member_not_found", "member not found")
	case errors.Is(err, messdomain.ErrMessIDTaken):
		h.log.BusinessError(op+": mess id taken", err, fields...)
		writeError(w, http.StatusConflict, "mess_id_taken", "mess id already taken")
	case errors.Is(err, messdomain.ErrNotMember):
		h.log.BusinessError(op+": not a member", err, fields...)
		writeError(w, http.StatusForbidden, "not_member", "not a member of this mess")
	case errors.Is(err, messdomain.ErrNotAdmin):
		h.log.BusinessError(op+": not admin", err, fields...)
		writeError(w, http.StatusForbidden, "not_admin", "admin access required")
	case errors.Is(err, messdomain.ErrWrongJoinKey):
		h.log.BusinessError(op+": wrong join key", err, fields...)
		writeError(w, http.StatusForbidden, "wrong_join_key", "wrong join key")
	case errors.Is(err, messdomain.ErrInvalidMessID),
		errors.Is(err, messdomain.ErrInvalidJoinKey),
		errors.Is(err, messdomain.ErrInvalidMealKey),
		errors.Is(err, messdomain.ErrEmptyDescription),
		errors.Is(err, messdomain.ErrInvalidAmount):
		h.log.BusinessError(op+": invalid request", err, fields...)
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.log.InternalError(op+": failed", err, fields...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// coerceCount mirrors the loose typing of the original clients, which posted
// meal counts as numbers or numeric strings. Anything else counts as zero.
func coerceCount(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return int(asNumber)
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(asString)); err == nil {
			return parsed
		}
	}
	return 0
}
