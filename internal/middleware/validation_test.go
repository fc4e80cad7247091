package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

type lookupRequest struct {
	Code string `json:"code" validate:"required,notblank,max=128"`
}

type quantityRequest struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1,lte=999"`
}

func newJSONRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestProperty_BlankCodesAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("codes made only of whitespace fail validation", prop.ForAll(
		func(n int) bool {
			body, _ := json.Marshal(map[string]string{"code": strings.Repeat(" \t", n)})

			var req lookupRequest
			err := DecodeAndValidate(newJSONRequest(string(body)), &req)
			if err == nil {
				return false
			}
			fields := FormatValidationErrors(err)
			return len(fields) == 1 && fields[0].Field == "Code"
		},
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_QuantityRangeValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quantity outside 1..999 is rejected", prop.ForAll(
		func(qty int) bool {
			body, _ := json.Marshal(map[string]interface{}{"id": "101", "quantity": qty})

			var req quantityRequest
			err := DecodeAndValidate(newJSONRequest(string(body)), &req)
			if qty >= 1 && qty <= 999 {
				return err == nil
			}
			return err != nil
		},
		gen.IntRange(-100, 1100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithDecodeError(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		var req lookupRequest
		err := DecodeAndValidate(newJSONRequest(`{"code":`), &req)
		require.Error(t, err)

		w := httptest.NewRecorder()
		RespondWithDecodeError(w, err)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "invalid request body", response.Error.Message)
	})

	t.Run("field errors", func(t *testing.T) {
		var req lookupRequest
		err := DecodeAndValidate(newJSONRequest(`{"code":"   "}`), &req)
		require.Error(t, err)

		w := httptest.NewRecorder()
		RespondWithDecodeError(w, err)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Equal(t, "validation failed", response.Error.Message)
		require.Contains(t, response.Error.Details, "validation_errors")
	})
}
