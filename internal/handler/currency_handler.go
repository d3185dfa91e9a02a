package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Lutefd/currency-data/internal/commons"
	"github.com/Lutefd/currency-data/internal/model"
	"github.com/Lutefd/currency-data/internal/service"
	"github.com/Lutefd/currency-data/internal/validator"
)

const (
	msgAdded       = "Data successfully added to the database."
	msgNotAdded    = "Data was NOT added to the database."
	msgRemoved     = "Data successfully removed from the database."
	msgAddFailed   = "Failed to add data to the database."
	msgInternal    = "Internal server error"
	msgInvalidBody = "Invalid request payload"
	msgMissingDate = "date is required"
	msgInvalidDate = "invalid date"
)

type CurrencyHandler struct {
	currencyService service.CurrencyServiceInterface
}

func NewCurrencyHandler(currencyService service.CurrencyServiceInterface) *CurrencyHandler {
	return &CurrencyHandler{
		currencyService: currencyService,
	}
}

type currencyDataResponse struct {
	CurrencyObject []model.CurrencyObject `json:"CurrencyObject"`
}

func (h *CurrencyHandler) AddCurrencyData(w http.ResponseWriter, r *http.Request) {
	entries, err := validator.DecodePayload(http.MaxBytesReader(w, r.Body, commons.MaxPayloadBytes))
	if err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	result, err := h.currencyService.AddCurrencyData(r.Context(), entries)
	if err != nil {
		commons.RespondWithError(w, http.StatusInternalServerError, msgAddFailed)
		return
	}
	if result.Inserted == 0 {
		commons.RespondWithMessage(w, http.StatusOK, msgNotAdded)
		return
	}

	commons.RespondWithMessage(w, http.StatusCreated, msgAdded)
}

func (h *CurrencyHandler) RemoveCurrencyData(w http.ResponseWriter, r *http.Request) {
	date, err := requestDate(r)
	if err != nil {
		respondWithDateError(w, err)
		return
	}
	if date == nil {
		commons.RespondWithError(w, http.StatusBadRequest, msgMissingDate)
		return
	}

	if _, err := h.currencyService.RemoveCurrencyData(r.Context(), *date); err != nil {
		commons.RespondWithError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	commons.RespondWithMessage(w, http.StatusOK, msgRemoved)
}

func (h *CurrencyHandler) GetCurrencyData(w http.ResponseWriter, r *http.Request) {
	date, err := requestDate(r)
	if err != nil {
		respondWithDateError(w, err)
		return
	}

	records, err := h.currencyService.GetCurrencyData(r.Context(), date)
	if err != nil {
		commons.RespondWithError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if records == nil {
		records = []model.CurrencyObject{}
	}

	commons.RespondWithJSON(w, http.StatusOK, currencyDataResponse{CurrencyObject: records})
}

// requestDate reads the date from the query string, falling back to a JSON
// body of the form {"date": "..."}. A nil date means none was supplied.
func requestDate(r *http.Request) (*time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get("date"))
	if value == "" {
		body, err := readDateBody(r)
		if err != nil {
			return nil, err
		}
		value = body
	}
	if value == "" {
		return nil, nil
	}

	date, err := model.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

func readDateBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, commons.MaxPayloadBytes))
	if err != nil {
		return "", model.ErrInvalidPayload
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}

	var body struct {
		Date *string `json:"date"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", model.ErrInvalidPayload
	}
	if body.Date == nil {
		return "", nil
	}
	return strings.TrimSpace(*body.Date), nil
}

func respondWithDateError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrInvalidDate) {
		commons.RespondWithError(w, http.StatusBadRequest, msgInvalidDate)
		return
	}
	commons.RespondWithError(w, http.StatusBadRequest, msgInvalidBody)
}
