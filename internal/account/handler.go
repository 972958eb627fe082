package account

import (
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"membership-api/internal/httpx"
)

type Recorder interface {
	ObserveLogin(result string)
	ObserveRegistration(result string)
	ObserveTokenIssued()
}

type Handler struct {
	service  *Service
	recorder Recorder
}

func NewHandler(service *Service, recorder Recorder) *Handler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Handler{service: service, recorder: recorder}
}

type nopRecorder struct{}

func (nopRecorder) ObserveLogin(string)        {}
func (nopRecorder) ObserveRegistration(string) {}
func (nopRecorder) ObserveTokenIssued()        {}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&r.Password, validation.Required),
	)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	var body loginRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return nil
	}

	result, err := h.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.recorder.ObserveLogin("failure")
			httpx.WriteError(w, http.StatusUnauthorized, "Invalid username or password")
			return nil
		}
		h.recorder.ObserveLogin("error")
		return err
	}

	h.recorder.ObserveLogin("success")
	h.recorder.ObserveTokenIssued()
	httpx.WriteJSON(w, http.StatusOK, result)
	return nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	var body registerRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return nil
	}
	body.Username = strings.TrimSpace(body.Username)
	if err := body.Validate(); err != nil {
		h.recorder.ObserveRegistration("invalid")
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil
	}

	result, err := h.service.Register(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			h.recorder.ObserveRegistration("taken")
			httpx.WriteError(w, http.StatusBadRequest, "username is taken")
			return nil
		}
		h.recorder.ObserveRegistration("error")
		return err
	}

	h.recorder.ObserveRegistration("success")
	h.recorder.ObserveTokenIssued()
	httpx.WriteJSON(w, http.StatusOK, result)
	return nil
}
