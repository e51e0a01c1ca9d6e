package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorUsesMatchingHTTPStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")

	ErrorWithData(c, CodeUnprocessableEntity, "cupom expirado", gin.H{"reason": "expired"})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422 got %d", w.Code)
	}
	var body struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.StatusCode != 422 || body.Data["reason"] != "expired" || body.Data["request_id"] != "req-1" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[int]int{CodeOK: 200, CodeConflict: 409, CodeBadGateway: 502, 7: 500}
	for code, want := range cases {
		if got := HTTPStatus(code); got != want {
			t.Fatalf("code %d want %d got %d", code, want, got)
		}
	}
}

func TestAppErrorWrite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	cause := errors.New("row locked")
	appErr := WrapError(CodeConflict, "tente novamente", cause).WithReason("concurrency_conflict", "already_used")
	if !errors.Is(appErr, cause) {
		t.Fatalf("app error should unwrap to cause")
	}
	appErr.Write(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("want 409 got %d", w.Code)
	}
	var body struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data["reason"] != "concurrency_conflict" || body.Data["detail"] != "already_used" {
		t.Fatalf("unexpected data %+v", body.Data)
	}
	if _, leaked := body.Data["error"]; leaked {
		t.Fatalf("cause must not be exposed")
	}
}
