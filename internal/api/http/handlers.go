package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"

	"github.com/lessonlane/studio-manager/internal/apisrv/admin"
	"github.com/lessonlane/studio-manager/internal/entity"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ctxKey int

const (
	ctxKeyTenantId ctxKey = iota
	ctxKeyActorId
)

// tenantCtx pulls tenant_id and admin_id out of the verified JWT claims.
// Every request is scoped to exactly one tenant.
func tenantCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			respondError(w, r, status.Error(codes.Unauthenticated, "missing token claims"))
			return
		}

		tenantId, ok := claimInt(claims, "tenant_id")
		if !ok || tenantId <= 0 {
			respondError(w, r, status.Error(codes.Unauthenticated, "token carries no tenant"))
			return
		}
		actorId, _ := claimInt(claims, "admin_id")

		ctx := context.WithValue(r.Context(), ctxKeyTenantId, tenantId)
		ctx = context.WithValue(ctx, ctxKeyActorId, actorId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimInt(claims map[string]interface{}, key string) (int, bool) {
	v, ok := claims[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

func tenantId(r *http.Request) int {
	id, _ := r.Context().Value(ctxKeyTenantId).(int)
	return id
}

func actorId(r *http.Request) int {
	id, _ := r.Context().Value(ctxKeyActorId).(int)
	return id
}

func entryId(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "entryId"))
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps domain errors onto HTTP status codes.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *entity.ValidationError
	if errors.As(err, &ve) {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message})
		return
	}

	code := http.StatusInternalServerError
	switch status.Code(err) {
	case codes.NotFound:
		code = http.StatusNotFound
	case codes.FailedPrecondition:
		code = http.StatusConflict
	case codes.InvalidArgument:
		code = http.StatusBadRequest
	case codes.Unauthenticated:
		code = http.StatusUnauthorized
	case codes.ResourceExhausted:
		code = http.StatusTooManyRequests
	}

	if code == http.StatusInternalServerError {
		slog.Default().ErrorContext(r.Context(), "request failed",
			slog.String("err", err.Error()),
			slog.String("path", r.URL.Path),
		)
		respondJSON(w, code, map[string]string{"error": "internal error"})
		return
	}
	respondJSON(w, code, map[string]string{"error": status.Convert(err).Message()})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &entity.ValidationError{Message: "malformed request body: " + err.Error()}
	}
	return nil
}

type handlers struct {
	srv *admin.Server
}

type addEntryRequest struct {
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`

	ChildFirstName    string `json:"child_first_name"`
	ChildLastName     string `json:"child_last_name"`
	ChildAge          int    `json:"child_age"`
	InstrumentId      int    `json:"instrument_id"`
	InstrumentName    string `json:"instrument_name"`
	LessonDurationMin int    `json:"lesson_duration_min"`

	PreferredTeacherId  *int     `json:"preferred_teacher_id"`
	PreferredLocationId *int     `json:"preferred_location_id"`
	PreferredWeekdays   []string `json:"preferred_weekdays"`
	EarliestTime        string   `json:"earliest_time"`
	LatestTime          string   `json:"latest_time"`
	ExperienceLevel     string   `json:"experience_level"`

	Priority string `json:"priority"`
	Source   string `json:"source"`
	LeadId   *int   `json:"lead_id"`
	Notes    string `json:"notes"`
}

func (h *handlers) addEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	en := &entity.WaitlistEntryNew{
		ContactName:         req.ContactName,
		ContactEmail:        req.ContactEmail,
		ContactPhone:        req.ContactPhone,
		ChildFirstName:      req.ChildFirstName,
		ChildLastName:       req.ChildLastName,
		ChildAge:            req.ChildAge,
		InstrumentId:        req.InstrumentId,
		InstrumentName:      req.InstrumentName,
		LessonDurationMin:   req.LessonDurationMin,
		PreferredTeacherId:  req.PreferredTeacherId,
		PreferredLocationId: req.PreferredLocationId,
		PreferredWeekdays:   entity.WeekdaySet(req.PreferredWeekdays),
		EarliestTime:        req.EarliestTime,
		LatestTime:          req.LatestTime,
		ExperienceLevel:     req.ExperienceLevel,
		Priority:            entity.EntryPriority(req.Priority),
		Source:              entity.EntrySource(req.Source),
		LeadId:              req.LeadId,
		Notes:               req.Notes,
	}

	entry, err := h.srv.AddToWaitlist(r.Context(), tenantId(r), en, actorId(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newEntryResponse(entry))
}

func (h *handlers) listEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	instrumentId, _ := strconv.Atoi(q.Get("instrument_id"))

	filter := &entity.EntryFilter{
		Status:       entity.EntryStatus(q.Get("status")),
		InstrumentId: instrumentId,
		Priority:     entity.EntryPriority(q.Get("priority")),
		Search:       q.Get("search"),
	}
	of := entity.Ascending
	if q.Get("order") == "desc" {
		of = entity.Descending
	}

	entries, total, err := h.srv.ListEntries(r.Context(), tenantId(r), limit, offset, filter, of)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]*entryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, newEntryResponse(&entries[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"entries": resp,
		"total":   total,
	})
}

func (h *handlers) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryId(r)
	if err != nil {
		respondError(w, r, &entity.ValidationError{Message: "invalid entry id"})
		return
	}
	entry, err := h.srv.GetEntry(r.Context(), tenantId(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newEntryResponse(entry))
}

type updateEntryRequest struct {
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`

	ChildFirstName    *string `json:"child_first_name"`
	ChildLastName     *string `json:"child_last_name"`
	ChildAge          *int    `json:"child_age"`
	LessonDurationMin *int    `json:"lesson_duration_min"`

	PreferredTeacherId  *int      `json:"preferred_teacher_id"`
	PreferredLocationId *int      `json:"preferred_location_id"`
	PreferredWeekdays   *[]string `json:"preferred_weekdays"`
	EarliestTime        *string   `json:"earliest_time"`
	LatestTime          *string   `json:"latest_time"`
	ExperienceLevel     *string   `json:"experience_level"`

	Notes *string `json:"notes"`
}

func (h *handlers) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryId(r)
	if err != nil {
		respondError(w, r, &entity.ValidationError{Message: "invalid entry id"})
		return
	}
	var req updateEntryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	upd := &entity.EntryUpdate{
		ContactName:         req.ContactName,
		ContactEmail:        req.ContactEmail,
		ContactPhone:        req.ContactPhone,
		ChildFirstName:      req.ChildFirstName,
		ChildLastName:       req.ChildLastName,
		ChildAge:            req.ChildAge,
		LessonDurationMin:   req.LessonDurationMin,
		PreferredTeacherId:  req.PreferredTeacherId,
		PreferredLocationId: req.PreferredLocationId,
		EarliestTime:        req.EarliestTime,
		LatestTime:          req.LatestTime,
		ExperienceLevel:     req.ExperienceLevel,
		Notes:               req.Notes,
	}
	if req.PreferredWeekdays != nil {
		ws := entity.WeekdaySet(*req.PreferredWeekdays)
		upd.PreferredWeekdays = &ws
	}

	entry, err := h.srv.UpdateEntry(r.Context(), tenantId(r), id, upd, actorId(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newEntryResponse(entry))
}

func (h *handlers) setPriority(w http.ResponseWriter, r *http.Request) {
	id, err := entryId(r)
	if err != nil {
		respondError(w, r, &entity.ValidationError{Message: "invalid entry id"})
		return
	}
	var req struct {
		Priority string `json:"priority"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	err = h.srv.SetPriority(r.Context(), tenantId(r), id, entity.EntryPriority(req.Priority), actorId(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *handlers) reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InstrumentId int   `json:"instrument_id"`
		OrderedIds   []int `json:"ordered_ids"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	err := h.srv.Reorder(r.Context(), tenantId(r), req.InstrumentId, req.OrderedIds, actorId(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *handlers) withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := entryId(r)
	if err != nil {
		respondError(w, r, &entity.ValidationError{Message: "invalid entry id"})
		return
	}
	if err := h.srv.Withdraw(r.Context(), tenantId(r), id, actorId(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *handlers) markLost(w http.ResponseWriter, r *http.Request) {
	id, err := entryId(r)
	if err != nil {
		respondError(w, r, &entity.ValidationError{Message: "invalid entry id"})
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.srv.MarkLost(r.Context(), tenantId(r), id, actorId(r), req.Reason); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *handlers) offerSlot(w http.ResponseWriter, r *http.Request) {
	id, err := entryId(r)
	if err != nil {
		respondError(w, r, &entity.ValidationError{Message: "invalid entry id"})
		return
	}
	var req struct {
		Weekday    string `json:"weekday"`
		StartTime  string `json:"start_time"`
		TeacherId  int    `json:"teacher_id"`
		LocationId int    `json:"location_id"`
		RateMinor  int64  `json:"rate_minor"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	offer := &entity.SlotOffer{
		Weekday:    req.Weekday,
		StartTime:  req.StartTime,
		TeacherId:  req.TeacherId,
		LocationId: req.LocationId,
		RateMinor:  req.RateMinor,
	}
	entry, err := h.srv.OfferSlot(r.Context(), tenantId(r), id, offer, actorId(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newEntryResponse(entry))
}

func (h *handlers) respondToOffer(w http.ResponseWriter, r *http.Request) {
	id, err := entryId(r)
	if err != nil {
		respondError(w, r, &entity.ValidationError{Message: "invalid entry id"})
		return
	}
	var req struct {
		Accept bool `json:"accept"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	entry, err := h.srv.RespondToOffer(r.Context(), tenantId(r), id, req.Accept, actorId(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newEntryResponse(entry))
}

func (h *handlers) convert(w http.ResponseWriter, r *http.Request) {
	id, err := entryId(r)
	if err != nil {
		respondError(w, r, &entity.ValidationError{Message: "invalid entry id"})
		return
	}
	var req struct {
		TeacherId *int `json:"teacher_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	student, err := h.srv.Convert(r.Context(), tenantId(r), id, req.TeacherId, actorId(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newStudentResponse(student))
}

func (h *handlers) getActivity(w http.ResponseWriter, r *http.Request) {
	id, err := entryId(r)
	if err != nil {
		respondError(w, r, &entity.ValidationError{Message: "invalid entry id"})
		return
	}
	activities, err := h.srv.GetActivity(r.Context(), tenantId(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := make([]*activityResponse, 0, len(activities))
	for i := range activities {
		resp = append(resp, newActivityResponse(&activities[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"activities": resp})
}

func (h *handlers) getStats(w http.ResponseWriter, r *http.Request) {
	windowDays, _ := strconv.Atoi(r.URL.Query().Get("window_days"))
	stats, err := h.srv.GetStats(r.Context(), tenantId(r), time.Duration(windowDays)*24*time.Hour)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"waiting":            stats.Waiting,
		"offered":            stats.Offered,
		"accepted":           stats.Accepted,
		"enrolled_in_window": stats.EnrolledInWindow,
		"active":             stats.Active(),
	})
}

func (h *handlers) getInstrumentBreakdown(w http.ResponseWriter, r *http.Request) {
	counts, err := h.srv.GetInstrumentBreakdown(r.Context(), tenantId(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"instruments": counts})
}

func (h *handlers) updateTenantSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OfferExpiryHours    int `json:"offer_expiry_hours"`
		WaitlistExpiryWeeks int `json:"waitlist_expiry_weeks"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	err := h.srv.UpdateTenantSettings(r.Context(), tenantId(r), &entity.TenantSettingsUpdate{
		OfferExpiryHours:    req.OfferExpiryHours,
		WaitlistExpiryWeeks: req.WaitlistExpiryWeeks,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}
