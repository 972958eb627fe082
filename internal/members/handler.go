package members

import (
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"membership-api/internal/auth"
	"membership-api/internal/httpx"
)

type Handler struct {
	store Store
	now   func() time.Time
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store, now: time.Now}
}

func (u ProfileUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Introduction, validation.RuneLength(0, 2000)),
		validation.Field(&u.Interests, validation.RuneLength(0, 2000)),
		validation.Field(&u.LookingFor, validation.RuneLength(0, 2000)),
		validation.Field(&u.City, validation.RuneLength(0, 100)),
		validation.Field(&u.Country, validation.RuneLength(0, 100)),
	)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	members, err := h.store.List(r.Context())
	if err != nil {
		return err
	}

	today := h.now()
	out := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, NewMemberDTO(m, today))
	}

	httpx.WriteJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) error {
	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))

	member, err := h.store.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "member not found")
			return nil
		}
		return err
	}

	httpx.WriteJSON(w, http.StatusOK, NewMemberDTO(member, h.now()))
	return nil
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) error {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok || claims.Username == "" {
		httpx.WriteError(w, http.StatusBadRequest, "username not found in token")
		return nil
	}

	var body ProfileUpdate
	if err := httpx.DecodeStrictJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return nil
	}
	if err := body.Validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil
	}

	if err := h.store.UpdateProfile(r.Context(), claims.Username, body); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusBadRequest, "user not found")
			return nil
		}
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
